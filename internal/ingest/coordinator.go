package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/adsidev/catalogd/internal/catalog"
	"github.com/adsidev/catalogd/internal/export"
	"github.com/adsidev/catalogd/internal/retry"
	"github.com/adsidev/catalogd/internal/status"
	"github.com/adsidev/catalogd/pkg/logger"
	"github.com/adsidev/catalogd/pkg/metrics"
)

// Coordinator drives an ingestion run: it owns the write ordering into the
// catalog and the failure isolation around each entity. An entity failure
// becomes status + message on that entity and a tally in the summary; only
// resource acquisition failures abort a run.
type Coordinator struct {
	repo       *catalog.Repository
	reconciler *status.Reconciler
	gate       *retry.Gate
	log        *logger.Logger
	metrics    *metrics.CatalogMetrics
	supplier   string
}

func NewCoordinator(repo *catalog.Repository, reconciler *status.Reconciler, gate *retry.Gate, log *logger.Logger, m *metrics.CatalogMetrics, supplier string) *Coordinator {
	return &Coordinator{
		repo:       repo,
		reconciler: reconciler,
		gate:       gate,
		log:        log,
		metrics:    m,
		supplier:   supplier,
	}
}

// IngestProduct stores one extraction result: product, variants, images,
// then reconciles the product (and its gamme when linked).
func (c *Coordinator) IngestProduct(ctx context.Context, result ExtractionResult) (RunSummary, error) {
	ctx = c.runContext(ctx)
	summary := RunSummary{}

	productID, err := c.repo.UpsertProduct(ctx, catalog.ProductInput{
		ProductCode: result.ProductCode,
		Handle:      handleFor(result),
		Title:       result.Title,
		Description: result.Description,
		Vendor:      result.Vendor,
		ProductType: result.ProductType,
		Tags:        tagsFor(result),
		Category:    result.Category,
		Subcategory: result.Subcategory,
		Gamme:       gammeLabel(result.Gamme),
		BaseURL:     result.BaseURL,
		IsNew:       result.IsNew,
	})
	if err != nil {
		return summary, fmt.Errorf("upserting product %s: %w", result.ProductCode, err)
	}
	c.metrics.IncProductIngested(c.supplier, "upserted")

	var errs error
	for i, url := range result.Images {
		if err := c.repo.AddImage(ctx, productID, url, i+1); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	for _, variant := range result.Variants {
		if err := c.ingestVariant(ctx, productID, variant); err != nil {
			summary.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		summary.Succeeded++
	}

	if err := c.reconciler.ReconcileProduct(ctx, productID); err != nil {
		errs = multierr.Append(errs, err)
	}

	if result.Gamme != nil {
		if err := c.linkGamme(ctx, productID, *result.Gamme); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return summary, errs
}

func (c *Coordinator) ingestVariant(ctx context.Context, productID uint, variant VariantExtraction) (err error) {
	ctx = c.log.WithVariantCode(ctx, variant.CodeVL)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("variant %s: panic during ingestion: %v", variant.CodeVL, r)
			c.failVariantByCode(ctx, variant.CodeVL, err)
		}
	}()

	variantID, isNew, err := c.repo.UpsertVariant(ctx, variant.CodeVL, productID, variant.URL, variant.SizeText, false)
	if err != nil {
		c.metrics.IncVariantIngested(c.supplier, "rejected")
		return err
	}
	if !isNew {
		if err := c.repo.RefreshVariant(ctx, variantID, variant.URL, variant.SizeText); err != nil {
			return err
		}
	}

	if err := c.repo.RecordVariantResult(ctx, variantID, catalog.VariantFields{
		SKU:      variant.SKU,
		Gencode:  variant.Gencode,
		PricePA:  variant.PricePA,
		PricePVC: variant.PricePVC,
		Stock:    variant.Stock,
		Size:     variant.Size,
		Color:    variant.Color,
		Material: variant.Material,
	}); err != nil {
		return err
	}

	stored, err := c.repo.VariantByCode(ctx, variant.CodeVL)
	if err != nil {
		return err
	}
	c.metrics.IncVariantIngested(c.supplier, stored.Status.String())
	return nil
}

func (c *Coordinator) linkGamme(ctx context.Context, productID uint, ref GammeRef) error {
	gammeID, err := c.repo.UpsertGamme(ctx, ref.URL, ref.Category, ref.Name)
	if err != nil {
		return err
	}
	if err := c.repo.LinkGammeProduct(ctx, gammeID, productID); err != nil {
		return err
	}
	return c.reconciler.ReconcileGamme(ctx, gammeID)
}

// RetryErrors re-extracts failed variants still under the data budget. The
// gate is consulted against each variant's URL right before its attempt; an
// unreachable page skips that variant without touching its status or budget.
// Data failures consume one retry each and never stop the batch.
func (c *Coordinator) RetryErrors(ctx context.Context, session *ExtractionSession, filters catalog.VariantFilters) (RunSummary, error) {
	ctx = c.runContext(ctx)
	summary := RunSummary{}

	variants, err := c.repo.ErrorVariants(ctx, filters)
	if err != nil {
		return summary, err
	}
	if len(variants) == 0 {
		return summary, nil
	}

	var extractor Extractor
	var errs error
	for _, variant := range variants {
		vctx := c.log.WithVariantCode(ctx, variant.CodeVL)

		if !c.gate.WaitForReachable(vctx, variant.URL) {
			summary.Skipped++
			c.log.Warn(vctx, "variant page unreachable, attempt abandoned")
			continue
		}

		if extractor == nil {
			acquired, acquireErr := session.Acquire(ctx)
			if acquireErr != nil {
				return summary, fmt.Errorf("acquiring extraction session: %w", acquireErr)
			}
			extractor = acquired
		}

		if err := c.repo.IncrementVariantRetry(vctx, variant.ID); err != nil {
			errs = multierr.Append(errs, err)
			summary.Failed++
			continue
		}
		c.metrics.IncRetryAttempt("variant")

		if err := c.retryVariant(vctx, session, extractor, variant.ID, variant.CodeVL, variant.URL); err != nil {
			summary.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		summary.Succeeded++
	}
	return summary, errs
}

func (c *Coordinator) retryVariant(ctx context.Context, session *ExtractionSession, extractor Extractor, variantID uint, codeVL, url string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// A panicking extractor usually means the underlying session
			// died; drop it so the next acquire rebuilds.
			session.Invalidate()
			err = fmt.Errorf("variant %s: panic during extraction: %v", codeVL, r)
			c.failVariant(ctx, variantID, err)
		}
	}()

	if err := c.repo.MarkVariantProcessing(ctx, variantID); err != nil {
		return err
	}

	fields, err := extractor.ExtractVariant(ctx, codeVL, url)
	if err != nil {
		c.failVariant(ctx, variantID, err)
		return fmt.Errorf("variant %s: %w", codeVL, err)
	}

	if err := c.repo.RecordVariantResult(ctx, variantID, fields); err != nil {
		return err
	}

	stored, err := c.repo.VariantByCode(ctx, codeVL)
	if err != nil {
		return err
	}
	c.metrics.IncVariantIngested(c.supplier, stored.Status.String())
	return c.reconciler.ReconcileProduct(ctx, stored.ProductID)
}

func (c *Coordinator) failVariant(ctx context.Context, variantID uint, cause error) {
	if err := c.repo.MarkVariantError(ctx, variantID, cause.Error()); err != nil {
		c.log.Error(ctx, "storing variant failure", err)
	}
}

func (c *Coordinator) failVariantByCode(ctx context.Context, codeVL string, cause error) {
	variant, err := c.repo.VariantByCode(ctx, codeVL)
	if err != nil {
		return
	}
	c.failVariant(ctx, variant.ID, cause)
}

func (c *Coordinator) runContext(ctx context.Context) context.Context {
	ctx = c.log.WithRunID(ctx, uuid.NewString())
	return c.log.WithSupplier(ctx, c.supplier)
}

func handleFor(result ExtractionResult) string {
	if result.Title != nil {
		if slug := export.Slugify(*result.Title); slug != "" {
			return slug
		}
	}
	return strings.ToLower(result.ProductCode)
}

// tagsFor derives the stored Shopify tag list: category plus the grouping
// label (gamme when linked, subcategory otherwise).
func tagsFor(result ExtractionResult) *string {
	var parts []string
	if result.Category != nil && strings.TrimSpace(*result.Category) != "" {
		parts = append(parts, strings.TrimSpace(*result.Category))
	}
	grouping := gammeLabel(result.Gamme)
	if grouping == nil {
		grouping = result.Subcategory
	}
	if grouping != nil && strings.TrimSpace(*grouping) != "" {
		parts = append(parts, strings.TrimSpace(*grouping))
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, ", ")
	return &joined
}

func gammeLabel(ref *GammeRef) *string {
	if ref == nil || ref.Name == nil || strings.TrimSpace(*ref.Name) == "" {
		return nil
	}
	return ref.Name
}
