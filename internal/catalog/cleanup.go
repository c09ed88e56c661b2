package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/adsidev/catalogd/pkg/db/models"
)

// Cleanup operations back the administrative bulk-delete workflows. Each
// runs in a single transaction and returns the number of products removed
// (variants for DeleteBySKU). Child rows are removed explicitly instead of
// leaning on engine-level cascade so both drivers behave identically.

// DeleteAll wipes the whole catalog.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Product{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
		n, err := deleteProducts(tx, ids)
		if err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Gamme{}).Error; err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting all products: %w", err)
	}
	return deleted, nil
}

// DeleteByCategory removes every product in the category.
func (r *Repository) DeleteByCategory(ctx context.Context, category string) (int64, error) {
	return r.deleteWhere(ctx, "category = ?", category)
}

// DeleteBySubcategory removes every product in the subcategory.
func (r *Repository) DeleteBySubcategory(ctx context.Context, subcategory string) (int64, error) {
	return r.deleteWhere(ctx, "subcategory = ?", subcategory)
}

// DeleteByTitle removes products whose title contains the substring,
// case-insensitively.
func (r *Repository) DeleteByTitle(ctx context.Context, substring string) (int64, error) {
	pattern := "%" + strings.ToLower(substring) + "%"
	return r.deleteWhere(ctx, "LOWER(title) LIKE ?", pattern)
}

// DeleteByIDs removes the given products.
func (r *Repository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.deleteWhere(ctx, "id IN ?", ids)
}

// DeleteBySKU removes variants carrying the exact SKU and deletes any
// parent product left without variants. Returns the variant count removed.
func (r *Repository) DeleteBySKU(ctx context.Context, sku string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var productIDs []uint
		if err := tx.Model(&models.Variant{}).
			Where("sku = ?", sku).
			Distinct("product_id").
			Pluck("product_id", &productIDs).Error; err != nil {
			return err
		}

		res := tx.Where("sku = ?", sku).Delete(&models.Variant{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected

		var orphaned []uint
		for _, productID := range productIDs {
			var remaining int64
			if err := tx.Model(&models.Variant{}).
				Where("product_id = ?", productID).
				Count(&remaining).Error; err != nil {
				return err
			}
			if remaining == 0 {
				orphaned = append(orphaned, productID)
			}
		}
		_, err := deleteProducts(tx, orphaned)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("deleting variants by sku %q: %w", sku, err)
	}
	return deleted, nil
}

func (r *Repository) deleteWhere(ctx context.Context, condition string, args ...any) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Product{}).Where(condition, args...).Pluck("id", &ids).Error; err != nil {
			return err
		}
		n, err := deleteProducts(tx, ids)
		deleted = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("deleting products: %w", err)
	}
	return deleted, nil
}

func deleteProducts(tx *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := tx.Where("product_id IN ?", ids).Delete(&models.Image{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("product_id IN ?", ids).Delete(&models.Variant{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("product_id IN ?", ids).Delete(&models.GammeProduct{}).Error; err != nil {
		return 0, err
	}
	res := tx.Where("id IN ?", ids).Delete(&models.Product{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Count previews back the confirmation dialogs shown before a bulk delete.

// CountByCategory counts products in the category.
func (r *Repository) CountByCategory(ctx context.Context, category string) (int64, error) {
	return r.countWhere(ctx, "category = ?", category)
}

// CountBySubcategory counts products in the subcategory.
func (r *Repository) CountBySubcategory(ctx context.Context, subcategory string) (int64, error) {
	return r.countWhere(ctx, "subcategory = ?", subcategory)
}

// CountByTitle counts products whose title contains the substring,
// case-insensitively.
func (r *Repository) CountByTitle(ctx context.Context, substring string) (int64, error) {
	pattern := "%" + strings.ToLower(substring) + "%"
	return r.countWhere(ctx, "LOWER(title) LIKE ?", pattern)
}

// CountVariantsBySKU counts variants carrying the exact SKU.
func (r *Repository) CountVariantsBySKU(ctx context.Context, sku string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Variant{}).
		Where("sku = ?", sku).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting variants by sku %q: %w", sku, err)
	}
	return count, nil
}

// CountAll counts every product in the store.
func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	return r.countWhere(ctx, "1 = 1")
}

func (r *Repository) countWhere(ctx context.Context, condition string, args ...any) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where(condition, args...).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return count, nil
}
