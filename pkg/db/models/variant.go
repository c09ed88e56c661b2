package models

import (
	"time"

	"github.com/adsidev/catalogd/pkg/enums"
)

// Variant is a purchasable declination of a product. CodeVL is unique
// across the whole catalog, not per product.
type Variant struct {
	ID           uint               `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID    uint               `gorm:"column:product_id;not null;index:idx_variants_product"`
	CodeVL       string             `gorm:"column:code_vl;not null;uniqueIndex:idx_variants_code_vl"`
	URL          string             `gorm:"column:url;not null"`
	SizeText     *string            `gorm:"column:size_text"`
	Status       enums.EntityStatus `gorm:"column:status;not null;default:pending;index:idx_variants_status"`
	ErrorMessage *string            `gorm:"column:error_message"`
	SKU          *string            `gorm:"column:sku"`
	Gencode      *string            `gorm:"column:gencode"`
	PricePA      *string            `gorm:"column:price_pa"`
	PricePVC     *string            `gorm:"column:price_pvc"`
	Stock        *int               `gorm:"column:stock"`
	Size         *string            `gorm:"column:size"`
	Color        *string            `gorm:"column:color"`
	Material     *string            `gorm:"column:material"`
	RetryCount   int                `gorm:"column:retry_count;not null;default:0"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Variant) TableName() string {
	return "product_variants"
}
