package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/adsidev/catalogd/pkg/db/models"
	"github.com/adsidev/catalogd/pkg/enums"
	pkgerrors "github.com/adsidev/catalogd/pkg/errors"
)

// VariantFilters narrows the pending/error work queues.
type VariantFilters struct {
	Categories  []string
	Subcategory string
	Gamme       string
	Limit       int
}

// PendingVariants returns variants awaiting extraction, oldest first,
// excluding those that exhausted the data-retry budget.
func (r *Repository) PendingVariants(ctx context.Context, filters VariantFilters) ([]models.Variant, error) {
	return r.variantsByStatus(ctx, enums.EntityStatusPending, filters)
}

// ErrorVariants returns failed variants still under the data-retry budget.
func (r *Repository) ErrorVariants(ctx context.Context, filters VariantFilters) ([]models.Variant, error) {
	return r.variantsByStatus(ctx, enums.EntityStatusError, filters)
}

func (r *Repository) variantsByStatus(ctx context.Context, status enums.EntityStatus, filters VariantFilters) ([]models.Variant, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("product_variants.status = ?", status).
		Where("product_variants.retry_count < ?", r.maxDataRetries)

	if len(filters.Categories) > 0 {
		query = query.Where("products.category IN ?", filters.Categories)
	}
	if filters.Subcategory != "" {
		query = query.Where("products.subcategory = ?", filters.Subcategory)
	}
	if filters.Gamme != "" {
		query = query.Where("products.gamme = ?", filters.Gamme)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var variants []models.Variant
	if err := query.Order("product_variants.id ASC").Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("listing %s variants: %w", status, err)
	}
	return variants, nil
}

// CompletedProducts returns products holding at least one completed variant.
// When both category and subcategory filters are supplied they combine with
// OR: a product matching either list is included.
func (r *Repository) CompletedProducts(ctx context.Context, categories, subcategories []string) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = products.id AND v.status = ?)",
			enums.EntityStatusCompleted)

	switch {
	case len(categories) > 0 && len(subcategories) > 0:
		query = query.Where("products.category IN ? OR products.subcategory IN ?", categories, subcategories)
	case len(categories) > 0:
		query = query.Where("products.category IN ?", categories)
	case len(subcategories) > 0:
		query = query.Where("products.subcategory IN ?", subcategories)
	}

	var products []models.Product
	if err := query.Order("products.id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("listing completed products: %w", err)
	}
	return products, nil
}

// ProductVariants lists a product's variants in stable code order.
func (r *Repository) ProductVariants(ctx context.Context, productID uint) ([]models.Variant, error) {
	var variants []models.Variant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("code_vl ASC").
		Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("listing variants for product %d: %w", productID, err)
	}
	return variants, nil
}

// ProductImages lists a product's images in gallery order.
func (r *Repository) ProductImages(ctx context.Context, productID uint) ([]models.Image, error) {
	var images []models.Image
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("image_position ASC, id ASC").
		Find(&images).Error; err != nil {
		return nil, fmt.Errorf("listing images for product %d: %w", productID, err)
	}
	return images, nil
}

// ProductByID loads one product without associations.
func (r *Repository) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", id))
		}
		return nil, fmt.Errorf("loading product %d: %w", id, err)
	}
	return &product, nil
}

// VariantByCode loads the variant owning the given code.
func (r *Repository) VariantByCode(ctx context.Context, codeVL string) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).First(&variant, "code_vl = ?", codeVL).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", codeVL))
		}
		return nil, fmt.Errorf("loading variant %s: %w", codeVL, err)
	}
	return &variant, nil
}

// VariantStatusCounts returns the per-status tally for a product's variants.
func (r *Repository) VariantStatusCounts(ctx context.Context, productID uint) (total, completed, errored int64, err error) {
	tx := r.db.WithContext(ctx)
	if err = tx.Model(&models.Variant{}).
		Where("product_id = ?", productID).
		Count(&total).Error; err != nil {
		return 0, 0, 0, fmt.Errorf("counting variants for product %d: %w", productID, err)
	}
	if err = tx.Model(&models.Variant{}).
		Where("product_id = ? AND status = ?", productID, enums.EntityStatusCompleted).
		Count(&completed).Error; err != nil {
		return 0, 0, 0, fmt.Errorf("counting completed variants for product %d: %w", productID, err)
	}
	if err = tx.Model(&models.Variant{}).
		Where("product_id = ? AND status = ?", productID, enums.EntityStatusError).
		Count(&errored).Error; err != nil {
		return 0, 0, 0, fmt.Errorf("counting error variants for product %d: %w", productID, err)
	}
	return total, completed, errored, nil
}

// ReconcilableProductIDs lists products eligible for a status sweep:
// everything not already in error.
func (r *Repository) ReconcilableProductIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("status != ?", enums.EntityStatusError).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing reconcilable products: %w", err)
	}
	return ids, nil
}

// SetProductStatus applies a reconciled status. When the status is not
// error the stored error message is cleared alongside.
func (r *Repository) SetProductStatus(ctx context.Context, id uint, status enums.EntityStatus) error {
	updates := map[string]any{"status": status}
	if status != enums.EntityStatusError {
		updates["error_message"] = nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// GammeCompletionCounts returns, for a gamme, how many products it links
// and how many of those hold at least one completed variant.
func (r *Repository) GammeCompletionCounts(ctx context.Context, gammeID uint) (totalProducts, withCompleted int64, err error) {
	tx := r.db.WithContext(ctx)
	if err = tx.Model(&models.GammeProduct{}).
		Where("gamme_id = ?", gammeID).
		Count(&totalProducts).Error; err != nil {
		return 0, 0, fmt.Errorf("counting products for gamme %d: %w", gammeID, err)
	}
	if err = tx.Model(&models.GammeProduct{}).
		Where("gamme_id = ?", gammeID).
		Where("EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = gamme_products.product_id AND v.status = ?)",
			enums.EntityStatusCompleted).
		Count(&withCompleted).Error; err != nil {
		return 0, 0, fmt.Errorf("counting completed products for gamme %d: %w", gammeID, err)
	}
	return totalProducts, withCompleted, nil
}

// Stats summarizes store contents for the admin surface.
type Stats struct {
	ProductsByStatus map[string]int64 `json:"products_by_status"`
	VariantsByStatus map[string]int64 `json:"variants_by_status"`
	Products         int64            `json:"products"`
	Variants         int64            `json:"variants"`
	Images           int64            `json:"images"`
	Gammes           int64            `json:"gammes"`
}

type statusCount struct {
	Status string
	Count  int64
}

// Stats aggregates entity counts by status.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ProductsByStatus: map[string]int64{},
		VariantsByStatus: map[string]int64{},
	}
	tx := r.db.WithContext(ctx)

	var productCounts []statusCount
	if err := tx.Model(&models.Product{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&productCounts).Error; err != nil {
		return nil, fmt.Errorf("counting products: %w", err)
	}
	for _, row := range productCounts {
		stats.ProductsByStatus[row.Status] = row.Count
		stats.Products += row.Count
	}

	var variantCounts []statusCount
	if err := tx.Model(&models.Variant{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&variantCounts).Error; err != nil {
		return nil, fmt.Errorf("counting variants: %w", err)
	}
	for _, row := range variantCounts {
		stats.VariantsByStatus[row.Status] = row.Count
		stats.Variants += row.Count
	}

	if err := tx.Model(&models.Image{}).Count(&stats.Images).Error; err != nil {
		return nil, fmt.Errorf("counting images: %w", err)
	}
	if err := tx.Model(&models.Gamme{}).Count(&stats.Gammes).Error; err != nil {
		return nil, fmt.Errorf("counting gammes: %w", err)
	}
	return stats, nil
}

// AvailableCategories lists the distinct non-empty product categories.
func (r *Repository) AvailableCategories(ctx context.Context) ([]string, error) {
	return r.distinctProductColumn(ctx, "category")
}

// AvailableSubcategories lists the distinct non-empty product subcategories.
func (r *Repository) AvailableSubcategories(ctx context.Context) ([]string, error) {
	return r.distinctProductColumn(ctx, "subcategory")
}

func (r *Repository) distinctProductColumn(ctx context.Context, column string) ([]string, error) {
	var values []string
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Distinct(column).
		Where(column+" IS NOT NULL AND "+column+" != ''").
		Order(column+" ASC").
		Pluck(column, &values).Error; err != nil {
		return nil, fmt.Errorf("listing distinct %s: %w", column, err)
	}
	return values, nil
}
