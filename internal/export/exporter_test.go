package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adsidev/catalogd/internal/catalog"
	"github.com/adsidev/catalogd/internal/export/exportcfg"
	"github.com/adsidev/catalogd/pkg/db/models"
	"github.com/adsidev/catalogd/pkg/enums"
	pkgerrors "github.com/adsidev/catalogd/pkg/errors"
	"github.com/adsidev/catalogd/pkg/logger"
	"github.com/adsidev/catalogd/pkg/metrics"
)

var exportSchema = []string{
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_code TEXT NOT NULL UNIQUE,
		handle TEXT NOT NULL DEFAULT '',
		title TEXT,
		description TEXT,
		vendor TEXT,
		product_type TEXT,
		tags TEXT,
		category TEXT,
		subcategory TEXT,
		gamme TEXT,
		base_url TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		is_new INTEGER NOT NULL DEFAULT 0,
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE product_variants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		code_vl TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL DEFAULT '',
		size_text TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		sku TEXT,
		gencode TEXT,
		price_pa TEXT,
		price_pvc TEXT,
		stock INTEGER,
		size TEXT,
		color TEXT,
		material TEXT,
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE product_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		image_url TEXT NOT NULL,
		image_position INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE gammes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		url TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		retry_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE gamme_products (
		gamme_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (gamme_id, product_id)
	)`,
}

func openExportDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:export_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range exportSchema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newTestExporter(t *testing.T, conn *gorm.DB, configJSON string) *CSVExporter {
	t.Helper()

	configPath := ""
	if configJSON != "" {
		configPath = filepath.Join(t.TempDir(), "csv_config.json")
		require.NoError(t, os.WriteFile(configPath, []byte(configJSON), 0o644))
	}
	resolver, err := exportcfg.NewResolver(configPath)
	require.NoError(t, err)

	log := logger.New(logger.Options{ServiceName: "export-test", Output: io.Discard})
	return NewCSVExporter(catalog.NewRepository(conn, 3), resolver, log, metrics.NewCatalogMetrics(nil), t.TempDir())
}

func seedExportProduct(t *testing.T, conn *gorm.DB, product *models.Product) {
	t.Helper()
	require.NoError(t, conn.Create(product).Error)
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "missing BOM")

	records, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func column(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

func TestExportRowExpansion(t *testing.T) {
	conn := openExportDB(t)
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C1",
		Handle:      "nappe-test",
		Title:       strPtr("NAPPE TEST"),
		Category:    strPtr("nappes"),
		Gamme:       strPtr("Mille Feuilles"),
		Status:      enums.EntityStatusCompleted,
		Variants: []models.Variant{
			{CodeVL: "V1", Status: enums.EntityStatusCompleted, SKU: strPtr("S1"), Gencode: strPtr("12345"), PricePVC: strPtr("19,90 €"), PricePA: strPtr("9,95")},
			{CodeVL: "V2", Status: enums.EntityStatusCompleted, SKU: strPtr("S2"), Gencode: strPtr("67890"), PricePVC: strPtr("24,90")},
		},
		Images: []models.Image{
			{ImageURL: "https://img/1.jpg", Position: 1},
			{ImageURL: "https://img/2.jpg", Position: 2},
			{ImageURL: "https://img/3.jpg", Position: 3},
		},
	})

	exporter := newTestExporter(t, conn, "")
	report, err := exporter.Export(context.Background(), Options{Supplier: "garnier"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Products)
	assert.Equal(t, 2, report.Variants)
	assert.Equal(t, 4, report.Rows)
	require.NotEmpty(t, report.Path)

	records := readCSVFile(t, report.Path)
	require.Len(t, records, 5)
	header := records[0]

	handleCol := column(header, "Handle")
	titleCol := column(header, "Title")
	srcCol := column(header, "Image Src")
	posCol := column(header, "Image Position")
	priceCol := column(header, "Variant Price")
	skuCol := column(header, "Variant SKU")

	// Variant 1, image 1: full row.
	assert.Equal(t, "12345", records[1][handleCol])
	assert.Equal(t, "Nappe test", records[1][titleCol])
	assert.Equal(t, "https://img/1.jpg", records[1][srcCol])
	assert.Equal(t, "1", records[1][posCol])
	assert.Equal(t, "19.90", records[1][priceCol])

	// Images 2 and 3: handle plus image fields only.
	for i, row := range [][]string{records[2], records[3]} {
		assert.Equal(t, "12345", row[handleCol])
		assert.Equal(t, fmt.Sprintf("https://img/%d.jpg", i+2), row[srcCol])
		assert.Equal(t, fmt.Sprintf("%d", i+2), row[posCol])
		assert.Equal(t, "", row[titleCol])
		assert.Equal(t, "", row[priceCol])
		assert.Equal(t, "", row[skuCol])
	}

	// Variant 2: full row, blank image fields.
	assert.Equal(t, "12345", records[4][handleCol])
	assert.Equal(t, "S2", records[4][skuCol])
	assert.Equal(t, "24.90", records[4][priceCol])
	assert.Equal(t, "", records[4][srcCol])
}

func TestExportBarcodeSentinelHandle(t *testing.T) {
	conn := openExportDB(t)
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C9",
		Handle:      "no-barcode",
		Title:       strPtr("Serviette"),
		Status:      enums.EntityStatusCompleted,
		Variants: []models.Variant{
			{CodeVL: "V9", Status: enums.EntityStatusCompleted, SKU: strPtr("S9"), Gencode: strPtr("   ")},
		},
	})

	exporter := newTestExporter(t, conn, "")
	report, err := exporter.Export(context.Background(), Options{Supplier: "garnier"})
	require.NoError(t, err)
	require.Equal(t, 1, report.Products)

	records := readCSVFile(t, report.Path)
	handleCol := column(records[0], "Handle")
	assert.Equal(t, "ERROR_NO_BARCODE_C9", records[1][handleCol])
}

func TestExportSKUHandleFallsBackToCode(t *testing.T) {
	conn := openExportDB(t)
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C7",
		Handle:      "c7",
		Title:       strPtr("Torchon"),
		Status:      enums.EntityStatusCompleted,
		Variants: []models.Variant{
			{CodeVL: "V7", Status: enums.EntityStatusCompleted, Gencode: strPtr("111")},
		},
	})

	exporter := newTestExporter(t, conn, `{"garnier": {"handle_source": "sku"}}`)
	report, err := exporter.Export(context.Background(), Options{Supplier: "garnier"})
	require.NoError(t, err)

	records := readCSVFile(t, report.Path)
	handleCol := column(records[0], "Handle")
	assert.Equal(t, "C7", records[1][handleCol])
}

func TestExportColumnProjection(t *testing.T) {
	conn := openExportDB(t)
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C2",
		Handle:      "c2",
		Title:       strPtr("Set de table"),
		Status:      enums.EntityStatusCompleted,
		Variants: []models.Variant{
			{CodeVL: "V2b", Status: enums.EntityStatusCompleted, Gencode: strPtr("222"), PricePVC: strPtr("12")},
		},
	})

	exporter := newTestExporter(t, conn, `{
		"garnier": {"columns": ["Handle", "Title", "Variant Price", "Not A Column"]}
	}`)
	report, err := exporter.Export(context.Background(), Options{Supplier: "garnier"})
	require.NoError(t, err)

	records := readCSVFile(t, report.Path)
	assert.Equal(t, []string{"Handle", "Title", "Variant Price"}, records[0])
	assert.Equal(t, []string{"222", "Set de table", "12.00"}, records[1])
}

func TestExportExcludesErrorVariants(t *testing.T) {
	conn := openExportDB(t)
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C1",
		Handle:      "nappe-test",
		Title:       strPtr("Nappe Test"),
		Status:      enums.EntityStatusPending,
		Variants: []models.Variant{
			{CodeVL: "V1", Status: enums.EntityStatusCompleted, SKU: strPtr("S1"), Gencode: strPtr("12345"), PricePVC: strPtr("19.90")},
			{CodeVL: "V2", Status: enums.EntityStatusError, ErrorMessage: strPtr("missing required fields: sku")},
		},
		Images: []models.Image{
			{ImageURL: "https://img/a.jpg", Position: 1},
			{ImageURL: "https://img/b.jpg", Position: 2},
		},
	})

	exporter := newTestExporter(t, conn, "")
	report, err := exporter.Export(context.Background(), Options{Supplier: "garnier"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Products)
	assert.Equal(t, 1, report.Variants)
	assert.Equal(t, 1, report.ErroredVariants)
	assert.Equal(t, 0, report.SkippedProducts)
	assert.Equal(t, 2, report.Rows)

	records := readCSVFile(t, report.Path)
	require.Len(t, records, 3)
	skuCol := column(records[0], "Variant SKU")
	assert.Equal(t, "S1", records[1][skuCol])
}

func TestExportNothingExportable(t *testing.T) {
	conn := openExportDB(t)
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C3",
		Handle:      "c3",
		Title:       strPtr("Chemin de table"),
		Status:      enums.EntityStatusPending,
		Variants: []models.Variant{
			{CodeVL: "V3", Status: enums.EntityStatusPending},
		},
	})

	exporter := newTestExporter(t, conn, "")
	report, err := exporter.Export(context.Background(), Options{Supplier: "garnier"})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Products)
	assert.Equal(t, 0, report.Rows)
	assert.Empty(t, report.Path)
}

func TestExportCategoryFilter(t *testing.T) {
	conn := openExportDB(t)
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C4",
		Handle:      "c4",
		Title:       strPtr("Nappe"),
		Category:    strPtr("nappes"),
		Status:      enums.EntityStatusCompleted,
		Variants:    []models.Variant{{CodeVL: "V4", Status: enums.EntityStatusCompleted, Gencode: strPtr("444")}},
	})
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C5",
		Handle:      "c5",
		Title:       strPtr("Torchon"),
		Category:    strPtr("torchons"),
		Status:      enums.EntityStatusCompleted,
		Variants:    []models.Variant{{CodeVL: "V5", Status: enums.EntityStatusCompleted, Gencode: strPtr("555")}},
	})

	exporter := newTestExporter(t, conn, "")
	report, err := exporter.Export(context.Background(), Options{Supplier: "garnier", Categories: []string{"nappes"}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Products)
	records := readCSVFile(t, report.Path)
	require.Len(t, records, 2)
	handleCol := column(records[0], "Handle")
	assert.Equal(t, "444", records[1][handleCol])
}

func TestExportCustomHandleWithoutFunc(t *testing.T) {
	conn := openExportDB(t)
	exporter := newTestExporter(t, conn, `{"garnier": {"handle_source": "custom"}}`)

	_, err := exporter.Export(context.Background(), Options{Supplier: "garnier"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}

func TestExportIsNewUnpublished(t *testing.T) {
	conn := openExportDB(t)
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C6",
		Handle:      "c6",
		Title:       strPtr("Nouveauté"),
		IsNew:       true,
		Status:      enums.EntityStatusCompleted,
		Variants:    []models.Variant{{CodeVL: "V6", Status: enums.EntityStatusCompleted, Gencode: strPtr("666")}},
	})

	exporter := newTestExporter(t, conn, "")
	report, err := exporter.Export(context.Background(), Options{Supplier: "garnier"})
	require.NoError(t, err)

	records := readCSVFile(t, report.Path)
	publishedCol := column(records[0], "Published")
	assert.Equal(t, "FALSE", records[1][publishedCol])
}

func TestExportTagsAndTypeColumns(t *testing.T) {
	conn := openExportDB(t)
	// C7 carries the stored values written at ingestion; C8 predates them
	// and falls back to the category + grouping derivation.
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C7",
		Handle:      "c7",
		Title:       strPtr("Nappe brodée"),
		ProductType: strPtr("Nappes brodées"),
		Tags:        strPtr("linge, Jacquard"),
		Category:    strPtr("linge"),
		Status:      enums.EntityStatusCompleted,
		Variants:    []models.Variant{{CodeVL: "V7", Status: enums.EntityStatusCompleted, Gencode: strPtr("777")}},
	})
	seedExportProduct(t, conn, &models.Product{
		ProductCode: "C8",
		Handle:      "c8",
		Title:       strPtr("Serviette"),
		Category:    strPtr("linge"),
		Subcategory: strPtr("serviettes"),
		Status:      enums.EntityStatusCompleted,
		Variants:    []models.Variant{{CodeVL: "V8", Status: enums.EntityStatusCompleted, Gencode: strPtr("888")}},
	})

	exporter := newTestExporter(t, conn, "")
	report, err := exporter.Export(context.Background(), Options{Supplier: "garnier"})
	require.NoError(t, err)

	records := readCSVFile(t, report.Path)
	handleCol := column(records[0], "Handle")
	tagsCol := column(records[0], "Tags")
	typeCol := column(records[0], "Type")

	byHandle := map[string][]string{}
	for _, row := range records[1:] {
		byHandle[row[handleCol]] = row
	}

	require.Contains(t, byHandle, "777")
	assert.Equal(t, "linge, Jacquard", byHandle["777"][tagsCol])
	assert.Equal(t, "Nappes brodées", byHandle["777"][typeCol])

	require.Contains(t, byHandle, "888")
	assert.Equal(t, "linge, serviettes", byHandle["888"][tagsCol])
	assert.Equal(t, "linge", byHandle["888"][typeCol])
}

func strPtr(s string) *string {
	return &s
}
