package models

import (
	"time"

	"github.com/adsidev/catalogd/pkg/enums"
)

// Product is the canonical supplier listing keyed by the supplier's
// product code. Status tracks the extraction lifecycle, not publication.
type Product struct {
	ID           uint               `gorm:"column:id;primaryKey;autoIncrement"`
	ProductCode  string             `gorm:"column:product_code;not null;uniqueIndex:idx_products_code"`
	Handle       string             `gorm:"column:handle;not null;index:idx_products_handle"`
	Title        *string            `gorm:"column:title"`
	Description  *string            `gorm:"column:description"`
	Vendor       *string            `gorm:"column:vendor"`
	ProductType  *string            `gorm:"column:product_type"`
	Tags         *string            `gorm:"column:tags"`
	Category     *string            `gorm:"column:category;index:idx_products_category"`
	Subcategory  *string            `gorm:"column:subcategory;index:idx_products_subcategory"`
	Gamme        *string            `gorm:"column:gamme"`
	BaseURL      *string            `gorm:"column:base_url"`
	Status       enums.EntityStatus `gorm:"column:status;not null;default:pending;index:idx_products_status"`
	ErrorMessage *string            `gorm:"column:error_message"`
	IsNew        bool               `gorm:"column:is_new;not null;default:false"`
	RetryCount   int                `gorm:"column:retry_count;not null;default:0"`
	Variants     []Variant          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images       []Image            `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
