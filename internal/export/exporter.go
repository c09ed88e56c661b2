package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adsidev/catalogd/internal/catalog"
	"github.com/adsidev/catalogd/internal/export/exportcfg"
	"github.com/adsidev/catalogd/pkg/db/models"
	"github.com/adsidev/catalogd/pkg/enums"
	pkgerrors "github.com/adsidev/catalogd/pkg/errors"
	"github.com/adsidev/catalogd/pkg/logger"
	"github.com/adsidev/catalogd/pkg/metrics"
)

// utf8BOM prefixes the output so spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// passthroughColumns are emitted blank on every full row so the header
// keeps the complete Shopify shape under default configuration.
var passthroughColumns = []string{
	"Google Shopping / Google Product Category",
	"Google Shopping / Gender",
	"Google Shopping / Age Group",
	"Google Shopping / MPN",
	"Google Shopping / Condition",
	"Google Shopping / Custom Product",
	"Included / United States",
	"Price / United States",
	"Compare At Price / United States",
	"Included / International",
	"Price / International",
	"Compare At Price / International",
}

// Options selects what one export run covers. Empty filters fall back to
// the supplier configuration's saved filters, then to everything.
type Options struct {
	Supplier      string
	Categories    []string
	Subcategories []string
	OutputPath    string
}

// Report summarizes one export run. SkippedProducts counts products left
// out for having no completed variant; ErroredVariants counts variants
// excluded from emitted products because they sit in error.
type Report struct {
	Products        int    `json:"products"`
	Variants        int    `json:"variants"`
	Rows            int    `json:"rows"`
	SkippedProducts int    `json:"skipped_products"`
	ErroredVariants int    `json:"errored_variants"`
	Path            string `json:"path,omitempty"`
}

// CustomHandleFunc supplies handles when a supplier configures the custom
// strategy. It receives the product and its completed variants.
type CustomHandleFunc func(product models.Product, variants []models.Variant) string

// CSVExporter turns completed catalog entities into a Shopify product CSV.
// Data problems on a single product never fail the run; they surface as
// skip counts in the report.
type CSVExporter struct {
	repo         *catalog.Repository
	resolver     *exportcfg.Resolver
	log          *logger.Logger
	metrics      *metrics.CatalogMetrics
	outputDir    string
	customHandle CustomHandleFunc
}

func NewCSVExporter(repo *catalog.Repository, resolver *exportcfg.Resolver, log *logger.Logger, m *metrics.CatalogMetrics, outputDir string) *CSVExporter {
	return &CSVExporter{
		repo:      repo,
		resolver:  resolver,
		log:       log,
		metrics:   m,
		outputDir: outputDir,
	}
}

// SetCustomHandle installs the supplier-specific handle function used by
// the custom strategy.
func (e *CSVExporter) SetCustomHandle(fn CustomHandleFunc) {
	e.customHandle = fn
}

// Export runs one export pass. With nothing exportable it returns a report
// with no path and writes no file.
func (e *CSVExporter) Export(ctx context.Context, opts Options) (*Report, error) {
	started := time.Now()
	ctx = e.log.WithSupplier(ctx, opts.Supplier)

	cfg, err := e.resolver.Resolve(opts.Supplier)
	if err != nil {
		return nil, err
	}
	if cfg.HandleSource == enums.HandleSourceCustom && e.customHandle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration,
			fmt.Sprintf("supplier %s: custom handle source configured without a handle function", opts.Supplier))
	}

	categories := opts.Categories
	if len(categories) == 0 {
		categories = cfg.Categories
	}
	subcategories := opts.Subcategories
	if len(subcategories) == 0 {
		subcategories = cfg.Subcategories
	}

	products, err := e.repo.CompletedProducts(ctx, categories, subcategories)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var rows []map[string]string
	for _, product := range products {
		productRows, err := e.productRows(ctx, product, cfg, report)
		if err != nil {
			return nil, err
		}
		rows = append(rows, productRows...)
	}
	report.Rows = len(rows)

	if len(rows) == 0 {
		e.log.Warn(ctx, "no exportable rows, nothing written")
		e.metrics.ObserveExportDuration(opts.Supplier, time.Since(started))
		return report, nil
	}

	columns := projectColumns(cfg.Columns, rows)
	path := opts.OutputPath
	if path == "" {
		path = e.autoPath(opts.Supplier, append(categories, subcategories...))
	}
	if err := writeCSV(path, columns, rows); err != nil {
		return nil, err
	}
	report.Path = path

	e.metrics.AddExportRows(opts.Supplier, report.Rows)
	e.metrics.ObserveExportDuration(opts.Supplier, time.Since(started))
	e.log.Info(e.log.WithFields(ctx, map[string]any{
		"products": report.Products,
		"rows":     report.Rows,
		"path":     path,
	}), "export written")
	return report, nil
}

func (e *CSVExporter) productRows(ctx context.Context, product models.Product, cfg exportcfg.SupplierConfig, report *Report) ([]map[string]string, error) {
	variants, err := e.repo.ProductVariants(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	var completed []models.Variant
	for _, variant := range variants {
		switch variant.Status {
		case enums.EntityStatusCompleted:
			completed = append(completed, variant)
		case enums.EntityStatusError:
			report.ErroredVariants++
		}
	}
	if len(completed) == 0 {
		report.SkippedProducts++
		e.log.Warn(e.log.WithProductCode(ctx, product.ProductCode), "no completed variants, product skipped")
		return nil, nil
	}

	images, err := e.repo.ProductImages(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	handle := e.resolveHandle(product, completed, cfg.HandleSource)
	title := deref(product.Title)

	var rows []map[string]string
	for i, variant := range completed {
		base := e.baseRow(product, variant, handle, cfg)
		if i > 0 {
			rows = append(rows, base)
			continue
		}
		if len(images) == 0 {
			rows = append(rows, base)
			continue
		}
		for idx, image := range images {
			row := base
			if idx > 0 {
				row = continuationRow(handle)
			}
			row["Image Src"] = image.ImageURL
			row["Image Position"] = strconv.Itoa(idx + 1)
			row["Image Alt Text"] = title
			rows = append(rows, row)
		}
	}

	report.Products++
	report.Variants += len(completed)
	return rows, nil
}

// resolveHandle picks the Shopify handle for one product. The barcode
// strategy never drops a product: a missing gencode yields a sentinel
// handle flagged for human follow-up.
func (e *CSVExporter) resolveHandle(product models.Product, completed []models.Variant, source enums.HandleSource) string {
	switch source {
	case enums.HandleSourceBarcode:
		for _, variant := range completed {
			if barcode := strings.TrimSpace(deref(variant.Gencode)); barcode != "" {
				return barcode
			}
		}
		return "ERROR_NO_BARCODE_" + product.ProductCode
	case enums.HandleSourceSKU:
		if sku := strings.TrimSpace(deref(completed[0].SKU)); sku != "" {
			return sku
		}
		return product.ProductCode
	case enums.HandleSourceTitle:
		return Slugify(deref(product.Title))
	case enums.HandleSourceCustom:
		return e.customHandle(product, completed)
	default:
		return product.ProductCode
	}
}

func (e *CSVExporter) baseRow(product models.Product, variant models.Variant, handle string, cfg exportcfg.SupplierConfig) map[string]string {
	category := deref(product.Category)
	grouping := deref(product.Gamme)
	if grouping == "" {
		grouping = deref(product.Subcategory)
	}

	// Ingestion stores the derived tag list on the product; rows seeded
	// before that existed fall back to the same derivation.
	tags := strings.TrimSpace(deref(product.Tags))
	if tags == "" {
		var parts []string
		if category != "" {
			parts = append(parts, category)
		}
		if grouping != "" {
			parts = append(parts, grouping)
		}
		tags = strings.Join(parts, ", ")
	}

	productType := strings.TrimSpace(deref(product.ProductType))
	if productType == "" {
		productType = category
	}

	published := "TRUE"
	if product.IsNew {
		published = "FALSE"
	}

	sku := deref(variant.SKU)
	if sku == "" {
		sku = variant.CodeVL
	}
	size := deref(variant.Size)
	if size == "" {
		size = deref(variant.SizeText)
	}

	stock := 0
	if variant.Stock != nil {
		stock = *variant.Stock
	}

	row := map[string]string{
		"Handle":                      handle,
		"Title":                       FormatTitle(deref(product.Title)),
		"Body (HTML)":                 deref(product.Description),
		"Vendor":                      FormatVendor(cfg.Vendor),
		"Product Category":            grouping,
		"Type":                        productType,
		"Tags":                        tags,
		"Published":                   published,
		"Option1 Name":                "",
		"Option1 Value":               size,
		"Option2 Name":                "",
		"Option2 Value":               "",
		"Option3 Name":                "",
		"Option3 Value":               "",
		"Variant SKU":                 sku,
		"Variant Grams":               "",
		"Variant Inventory Tracker":   "shopify",
		"Variant Inventory Qty":       "",
		"Variant Inventory Policy":    "deny",
		"Variant Fulfillment Service": "manual",
		"Variant Price":               NormalizePrice(deref(variant.PricePVC)),
		"Variant Compare At Price":    NormalizePrice(deref(variant.PricePA)),
		"Variant Requires Shipping":   "TRUE",
		"Variant Taxable":             "TRUE",
		"Variant Barcode":             deref(variant.Gencode),
		"Image Src":                   "",
		"Image Position":              "",
		"Image Alt Text":              "",
		"Gift Card":                   "FALSE",
		"SEO Title":                   "",
		"SEO Description":             "",
		"Variant Image":               "",
		"Variant Weight Unit":         "kg",
		"Variant Tax Code":            "",
		"Cost per item":               "",
		"Status":                      "active",
		"location":                    cfg.Location,
		"On hand (new)":               strconv.Itoa(stock),
		"On hand (current)":           "",
	}
	// Shopify tooling expects these present even when always blank.
	for _, col := range passthroughColumns {
		row[col] = ""
	}

	if size != "" {
		row["Option1 Name"] = "Taille"
	}
	if color := deref(variant.Color); color != "" {
		row["Option2 Name"] = "Couleur"
		row["Option2 Value"] = color
	}
	if material := deref(variant.Material); material != "" {
		row["Option3 Name"] = "Matière"
		row["Option3 Value"] = material
	}
	return row
}

// continuationRow carries only the handle and image fields; every other
// column stays blank so the row attaches to the product purely by handle.
func continuationRow(handle string) map[string]string {
	return map[string]string{"Handle": handle}
}

// projectColumns intersects the configured column list with the columns
// actually present in the generated rows, keeping configured order.
func projectColumns(configured []string, rows []map[string]string) []string {
	present := map[string]bool{}
	for _, row := range rows {
		for col := range row {
			present[col] = true
		}
	}
	var columns []string
	for _, col := range configured {
		if present[col] {
			columns = append(columns, col)
		}
	}
	return columns
}

func writeCSV(path string, columns []string, rows []map[string]string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("writing BOM to %s: %w", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("writing header to %s: %w", path, err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing row to %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}

func (e *CSVExporter) autoPath(supplier string, filterParts []string) string {
	parts := []string{"shopify_import", strings.ToLower(supplier)}
	for _, part := range filterParts {
		if slug := Slugify(part); slug != "" {
			parts = append(parts, slug)
		}
	}
	parts = append(parts, time.Now().Format("20060102_150405"))
	return filepath.Join(e.outputDir, strings.Join(parts, "_")+".csv")
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
