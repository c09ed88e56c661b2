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

// maxErrorMessageLen bounds stored error messages so a scraped stack trace
// cannot blow up the row.
const maxErrorMessageLen = 500

const titleMissingMessage = "title missing or blank"

// Repository is the catalog persistence layer. All status inference lives
// in the status package; the repository only applies the writes it is told.
type Repository struct {
	db             *gorm.DB
	maxDataRetries int
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB, maxDataRetries int) *Repository {
	return &Repository{db: conn, maxDataRetries: maxDataRetries}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, maxDataRetries: r.maxDataRetries}
}

// ProductInput is the extractor payload for one product listing.
type ProductInput struct {
	ProductCode string
	Handle      string
	Title       *string
	Description *string
	Vendor      *string
	ProductType *string
	Tags        *string
	Category    *string
	Subcategory *string
	Gamme       *string
	BaseURL     *string
	IsNew       bool
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// UpsertProduct creates or updates the listing for input.ProductCode.
//
// A blank title always forces error status, overriding everything else.
// An existing product in error is overwritten wholesale; one in any other
// status only accepts grouping-label updates, except that a blank incoming
// title flips it to error and clears the stored title.
func (r *Repository) UpsertProduct(ctx context.Context, input ProductInput) (uint, error) {
	if strings.TrimSpace(input.ProductCode) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product code is required")
	}

	status := enums.EntityStatusPending
	var errorMessage *string
	if blank(input.Title) {
		status = enums.EntityStatusError
		msg := titleMissingMessage
		errorMessage = &msg
	}

	tx := r.db.WithContext(ctx)

	var existing models.Product
	err := tx.Where("product_code = ?", input.ProductCode).First(&existing).Error
	switch {
	case err == nil:
		return r.updateExistingProduct(ctx, &existing, input, status, errorMessage)
	case err == gorm.ErrRecordNotFound:
		// fallthrough to insert
	default:
		return 0, fmt.Errorf("looking up product %s: %w", input.ProductCode, err)
	}

	product := models.Product{
		ProductCode:  input.ProductCode,
		Handle:       input.Handle,
		Title:        input.Title,
		Description:  input.Description,
		Vendor:       input.Vendor,
		ProductType:  input.ProductType,
		Tags:         input.Tags,
		Category:     input.Category,
		Subcategory:  input.Subcategory,
		Gamme:        input.Gamme,
		BaseURL:      input.BaseURL,
		Status:       status,
		ErrorMessage: errorMessage,
		IsNew:        input.IsNew,
	}
	if err := tx.Create(&product).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			// Lost the insert race; the row exists now.
			var row models.Product
			if lookupErr := tx.Where("product_code = ?", input.ProductCode).First(&row).Error; lookupErr == nil {
				return row.ID, nil
			}
		}
		return 0, fmt.Errorf("creating product %s: %w", input.ProductCode, err)
	}
	return product.ID, nil
}

func (r *Repository) updateExistingProduct(ctx context.Context, existing *models.Product, input ProductInput, status enums.EntityStatus, errorMessage *string) (uint, error) {
	tx := r.db.WithContext(ctx)

	// Grouping labels are always corrected, even on healthy products, so a
	// re-run can fix a malformed category without touching completed work.
	labels := map[string]any{}
	if !blank(input.Category) {
		labels["category"] = input.Category
	}
	if !blank(input.Subcategory) {
		labels["subcategory"] = input.Subcategory
	}
	if !blank(input.Gamme) {
		labels["gamme"] = input.Gamme
	}
	if len(labels) > 0 {
		if err := tx.Model(&models.Product{}).Where("id = ?", existing.ID).Updates(labels).Error; err != nil {
			return 0, fmt.Errorf("updating labels for product %s: %w", existing.ProductCode, err)
		}
	}

	if existing.Status == enums.EntityStatusError {
		updates := map[string]any{
			"handle":        input.Handle,
			"title":         input.Title,
			"description":   input.Description,
			"vendor":        input.Vendor,
			"product_type":  input.ProductType,
			"tags":          input.Tags,
			"category":      input.Category,
			"subcategory":   input.Subcategory,
			"gamme":         input.Gamme,
			"base_url":      input.BaseURL,
			"status":        status,
			"error_message": errorMessage,
			"is_new":        input.IsNew,
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return 0, fmt.Errorf("overwriting product %s: %w", existing.ProductCode, err)
		}
		return existing.ID, nil
	}

	if blank(input.Title) {
		msg := titleMissingMessage
		updates := map[string]any{
			"status":        enums.EntityStatusError,
			"error_message": msg,
			"title":         nil,
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return 0, fmt.Errorf("forcing error on product %s: %w", existing.ProductCode, err)
		}
	}

	return existing.ID, nil
}

// UpsertVariant registers codeVL under productID.
//
// A codeVL already owned by a different product is a data-integrity error
// unless allowExisting is set, in which case the original link is preserved
// and its id returned. A duplicate under the same product returns the
// existing id with no mutation; use RefreshVariant for the re-collect path.
func (r *Repository) UpsertVariant(ctx context.Context, codeVL string, productID uint, url string, sizeText *string, allowExisting bool) (uint, bool, error) {
	if strings.TrimSpace(codeVL) == "" {
		return 0, false, pkgerrors.New(pkgerrors.CodeValidation, "variant code is required")
	}

	tx := r.db.WithContext(ctx)

	var existing models.Variant
	err := tx.Where("code_vl = ?", codeVL).First(&existing).Error
	if err == nil {
		if existing.ProductID != productID {
			if !allowExisting {
				return 0, false, pkgerrors.New(pkgerrors.CodeDuplicate,
					fmt.Sprintf("variant code %s already belongs to product %d, refused for product %d", codeVL, existing.ProductID, productID))
			}
			return existing.ID, false, nil
		}
		return existing.ID, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, false, fmt.Errorf("looking up variant %s: %w", codeVL, err)
	}

	variant := models.Variant{
		ProductID: productID,
		CodeVL:    codeVL,
		URL:       url,
		SizeText:  sizeText,
		Status:    enums.EntityStatusPending,
	}
	if err := tx.Create(&variant).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			var row models.Variant
			if lookupErr := tx.Where("code_vl = ?", codeVL).First(&row).Error; lookupErr == nil {
				return row.ID, false, nil
			}
		}
		return 0, false, fmt.Errorf("creating variant %s: %w", codeVL, err)
	}
	return variant.ID, true, nil
}

// RefreshVariant updates the collect-time fields of a known variant and
// resets it to pending with errors cleared, ready for re-extraction.
func (r *Repository) RefreshVariant(ctx context.Context, id uint, url string, sizeText *string) error {
	updates := map[string]any{
		"status":        enums.EntityStatusPending,
		"error_message": nil,
	}
	if url != "" {
		updates["url"] = url
	}
	if sizeText != nil {
		updates["size_text"] = sizeText
	}
	return r.touchVariant(ctx, id, updates)
}

// MarkVariantProcessing flags the variant as being extracted right now.
func (r *Repository) MarkVariantProcessing(ctx context.Context, id uint) error {
	return r.touchVariant(ctx, id, map[string]any{"status": enums.EntityStatusProcessing})
}

// MarkVariantError stores a truncated failure message on the variant.
func (r *Repository) MarkVariantError(ctx context.Context, id uint, message string) error {
	msg := truncateMessage(message)
	return r.touchVariant(ctx, id, map[string]any{
		"status":        enums.EntityStatusError,
		"error_message": msg,
	})
}

// VariantFields is the extraction result for one variant page.
type VariantFields struct {
	SKU      *string
	Gencode  *string
	PricePA  *string
	PricePVC *string
	Stock    *int
	Size     *string
	Color    *string
	Material *string
}

// RecordVariantResult stores the extracted fields and derives the terminal
// status: completed only when sku, gencode and sale price are all present,
// otherwise error with a message naming what is missing.
func (r *Repository) RecordVariantResult(ctx context.Context, id uint, fields VariantFields) error {
	var missing []string
	if blank(fields.SKU) {
		missing = append(missing, "sku")
	}
	if blank(fields.Gencode) {
		missing = append(missing, "gencode")
	}
	if blank(fields.PricePVC) {
		missing = append(missing, "price_pvc")
	}

	updates := map[string]any{}
	if fields.SKU != nil {
		updates["sku"] = fields.SKU
	}
	if fields.Gencode != nil {
		updates["gencode"] = fields.Gencode
	}
	if fields.PricePA != nil {
		updates["price_pa"] = fields.PricePA
	}
	if fields.PricePVC != nil {
		updates["price_pvc"] = fields.PricePVC
	}
	if fields.Stock != nil {
		updates["stock"] = fields.Stock
	}
	if fields.Size != nil {
		updates["size"] = fields.Size
	}
	if fields.Color != nil {
		updates["color"] = fields.Color
	}
	if fields.Material != nil {
		updates["material"] = fields.Material
	}

	if len(missing) > 0 {
		updates["status"] = enums.EntityStatusError
		updates["error_message"] = truncateMessage("missing required fields: " + strings.Join(missing, ", "))
	} else {
		updates["status"] = enums.EntityStatusCompleted
		updates["error_message"] = nil
	}

	return r.touchVariant(ctx, id, updates)
}

func (r *Repository) touchVariant(ctx context.Context, id uint, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Variant{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating variant %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %d not found", id))
	}
	return nil
}

// AddImage attaches an image URL to the product. Duplicate (product, url)
// pairs are ignored so re-runs cannot multiply the gallery.
func (r *Repository) AddImage(ctx context.Context, productID uint, url string, position int) error {
	if strings.TrimSpace(url) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
	}
	if position < 1 {
		position = 1
	}

	tx := r.db.WithContext(ctx)

	var count int64
	if err := tx.Model(&models.Image{}).
		Where("product_id = ? AND image_url = ?", productID, url).
		Count(&count).Error; err != nil {
		return fmt.Errorf("checking image for product %d: %w", productID, err)
	}
	if count > 0 {
		return nil
	}

	image := models.Image{ProductID: productID, ImageURL: url, Position: position}
	if err := tx.Create(&image).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return fmt.Errorf("creating image for product %d: %w", productID, err)
	}
	return nil
}

// IncrementProductRetry consumes one unit of the product's data-retry budget.
func (r *Repository) IncrementProductRetry(ctx context.Context, id uint) error {
	return r.incrementRetry(ctx, &models.Product{}, id)
}

// IncrementVariantRetry consumes one unit of the variant's data-retry budget.
func (r *Repository) IncrementVariantRetry(ctx context.Context, id uint) error {
	return r.incrementRetry(ctx, &models.Variant{}, id)
}

// IncrementGammeRetry consumes one unit of the gamme's data-retry budget.
func (r *Repository) IncrementGammeRetry(ctx context.Context, id uint) error {
	return r.incrementRetry(ctx, &models.Gamme{}, id)
}

func (r *Repository) incrementRetry(ctx context.Context, model any, id uint) error {
	return r.db.WithContext(ctx).Model(model).Where("id = ?", id).
		UpdateColumn("retry_count", gorm.Expr("retry_count + 1")).Error
}

func truncateMessage(message string) string {
	runes := []rune(message)
	if len(runes) > maxErrorMessageLen {
		return string(runes[:maxErrorMessageLen])
	}
	return message
}
