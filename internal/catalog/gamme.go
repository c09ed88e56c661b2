package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/adsidev/catalogd/pkg/db"
	"github.com/adsidev/catalogd/pkg/db/models"
	"github.com/adsidev/catalogd/pkg/enums"
	pkgerrors "github.com/adsidev/catalogd/pkg/errors"
)

// Gamme operations serve the supplier families that group products into
// collection pages. The tables simply stay empty for the others.

// UpsertGamme registers a collection page by URL. A missing name means the
// page could not be parsed, so the gamme lands in error until a later pass
// supplies one.
func (r *Repository) UpsertGamme(ctx context.Context, url, category string, name *string) (uint, error) {
	if strings.TrimSpace(url) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "gamme url is required")
	}

	status := enums.EntityStatusPending
	var finalName *string
	if name != nil && strings.TrimSpace(*name) != "" {
		trimmed := strings.TrimSpace(*name)
		finalName = &trimmed
	} else {
		status = enums.EntityStatusError
	}

	tx := r.db.WithContext(ctx)

	var existing models.Gamme
	err := tx.Where("url = ?", url).First(&existing).Error
	if err == nil {
		updates := map[string]any{}
		if existing.Status == enums.EntityStatusError && finalName != nil {
			updates["name"] = finalName
			updates["status"] = enums.EntityStatusPending
			updates["category"] = category
		} else if nameChanged(existing.Name, finalName) || existing.Status != status || existing.Category != category {
			updates["name"] = finalName
			updates["status"] = status
			updates["category"] = category
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Gamme{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return 0, fmt.Errorf("updating gamme %s: %w", url, err)
			}
		}
		return existing.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, fmt.Errorf("looking up gamme %s: %w", url, err)
	}

	gamme := models.Gamme{Name: finalName, URL: url, Category: category, Status: status}
	if err := tx.Create(&gamme).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			var row models.Gamme
			if lookupErr := tx.Where("url = ?", url).First(&row).Error; lookupErr == nil {
				return row.ID, nil
			}
		}
		return 0, fmt.Errorf("creating gamme %s: %w", url, err)
	}
	return gamme.ID, nil
}

func nameChanged(a, b *string) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}

// LinkGammeProduct records product membership in a gamme; re-links are
// ignored.
func (r *Repository) LinkGammeProduct(ctx context.Context, gammeID, productID uint) error {
	tx := r.db.WithContext(ctx)

	var count int64
	if err := tx.Model(&models.GammeProduct{}).
		Where("gamme_id = ? AND product_id = ?", gammeID, productID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("checking gamme link: %w", err)
	}
	if count > 0 {
		return nil
	}

	link := models.GammeProduct{GammeID: gammeID, ProductID: productID}
	if err := tx.Create(&link).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return fmt.Errorf("linking product %d to gamme %d: %w", productID, gammeID, err)
	}
	return nil
}

// GammeByURL loads a gamme by its unique URL.
func (r *Repository) GammeByURL(ctx context.Context, url string) (*models.Gamme, error) {
	var gamme models.Gamme
	if err := r.db.WithContext(ctx).First(&gamme, "url = ?", url).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("gamme %s not found", url))
		}
		return nil, fmt.Errorf("loading gamme %s: %w", url, err)
	}
	return &gamme, nil
}

// GammeByID loads a gamme by primary key.
func (r *Repository) GammeByID(ctx context.Context, id uint) (*models.Gamme, error) {
	var gamme models.Gamme
	if err := r.db.WithContext(ctx).First(&gamme, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("gamme %d not found", id))
		}
		return nil, fmt.Errorf("loading gamme %d: %w", id, err)
	}
	return &gamme, nil
}

// GammesByStatus lists gammes, optionally narrowed by status and category.
func (r *Repository) GammesByStatus(ctx context.Context, status *enums.EntityStatus, category string) ([]models.Gamme, error) {
	query := r.db.WithContext(ctx).Model(&models.Gamme{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var gammes []models.Gamme
	if err := query.Order("updated_at DESC").Find(&gammes).Error; err != nil {
		return nil, fmt.Errorf("listing gammes: %w", err)
	}
	return gammes, nil
}

// ErrorGammes lists gammes needing attention: explicit error status or a
// missing name, optionally narrowed by category.
func (r *Repository) ErrorGammes(ctx context.Context, category string) ([]models.Gamme, error) {
	query := r.db.WithContext(ctx).Model(&models.Gamme{}).
		Where("status = ? OR name IS NULL", enums.EntityStatusError)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var gammes []models.Gamme
	if err := query.Order("updated_at DESC").Find(&gammes).Error; err != nil {
		return nil, fmt.Errorf("listing error gammes: %w", err)
	}
	return gammes, nil
}

// GammeProductIDs lists the ids of products linked to the gamme.
func (r *Repository) GammeProductIDs(ctx context.Context, gammeID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.GammeProduct{}).
		Where("gamme_id = ?", gammeID).
		Order("product_id ASC").
		Pluck("product_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing products for gamme %d: %w", gammeID, err)
	}
	return ids, nil
}

// UnlinkMissingProducts removes membership rows pointing at products that
// no longer exist and returns how many links were swept.
func (r *Repository) UnlinkMissingProducts(ctx context.Context, gammeID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("gamme_id = ? AND product_id NOT IN (SELECT id FROM products)", gammeID).
		Delete(&models.GammeProduct{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweeping orphan links for gamme %d: %w", gammeID, res.Error)
	}
	return res.RowsAffected, nil
}

// SetGammeStatus applies a reconciled status to the gamme.
func (r *Repository) SetGammeStatus(ctx context.Context, id uint, status enums.EntityStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Gamme{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// MarkGammeError stores a terminal failure on the gamme.
func (r *Repository) MarkGammeError(ctx context.Context, id uint) error {
	return r.SetGammeStatus(ctx, id, enums.EntityStatusError)
}
