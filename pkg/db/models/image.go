package models

import "time"

// Image is a product photo. Position orders the gallery; position 1 is
// the cover shot the export places on the first row.
type Image struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex:idx_images_product_url"`
	ImageURL  string    `gorm:"column:image_url;not null;uniqueIndex:idx_images_product_url"`
	Position  int       `gorm:"column:image_position;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Image) TableName() string {
	return "product_images"
}
