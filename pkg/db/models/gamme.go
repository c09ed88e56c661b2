package models

import (
	"time"

	"github.com/adsidev/catalogd/pkg/enums"
)

// Gamme is a supplier collection page grouping several products. Only
// some suppliers expose them; the tables stay empty for the rest.
type Gamme struct {
	ID         uint               `gorm:"column:id;primaryKey;autoIncrement"`
	Name       *string            `gorm:"column:name"`
	URL        string             `gorm:"column:url;not null;uniqueIndex:idx_gammes_url"`
	Category   string             `gorm:"column:category;not null;index:idx_gammes_category"`
	Status     enums.EntityStatus `gorm:"column:status;not null;default:pending;index:idx_gammes_status"`
	RetryCount int                `gorm:"column:retry_count;not null;default:0"`
	Products   []Product          `gorm:"many2many:gamme_products;joinForeignKey:GammeID;joinReferences:ProductID"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Gamme) TableName() string {
	return "gammes"
}

// GammeProduct is the explicit join row so membership can be swept for
// orphans without loading either side.
type GammeProduct struct {
	GammeID   uint      `gorm:"column:gamme_id;primaryKey"`
	ProductID uint      `gorm:"column:product_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (GammeProduct) TableName() string {
	return "gamme_products"
}
