package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsidev/catalogd/pkg/enums"
	pkgerrors "github.com/adsidev/catalogd/pkg/errors"
)

func TestUpsertProductBlankTitleForcesErrorStatus(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1"})
	require.NoError(t, err)

	product, err := repo.ProductByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.EntityStatusError, product.Status)
	require.NotNil(t, product.ErrorMessage)
	assert.Contains(t, *product.ErrorMessage, "title")
}

func TestUpsertProductErrorStatusAcceptsFullOverwrite(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1"})
	require.NoError(t, err)

	again, err := repo.UpsertProduct(ctx, ProductInput{
		ProductCode: "C1",
		Handle:      "nappe-test",
		Title:       strPtr("Nappe Test"),
		Vendor:      strPtr("GARNIER"),
		Category:    strPtr("linge"),
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	product, err := repo.ProductByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.EntityStatusPending, product.Status)
	assert.Nil(t, product.ErrorMessage)
	require.NotNil(t, product.Title)
	assert.Equal(t, "Nappe Test", *product.Title)
	assert.Equal(t, "nappe-test", product.Handle)
}

func TestUpsertProductHealthyOnlyAcceptsGroupingLabels(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.UpsertProduct(ctx, ProductInput{
		ProductCode: "C1",
		Handle:      "nappe-test",
		Title:       strPtr("Nappe Test"),
		Vendor:      strPtr("GARNIER"),
		Category:    strPtr("linge"),
	})
	require.NoError(t, err)

	_, err = repo.UpsertProduct(ctx, ProductInput{
		ProductCode: "C1",
		Handle:      "other-handle",
		Title:       strPtr("Other Title"),
		Vendor:      strPtr("OTHER"),
		Category:    strPtr("deco"),
		Gamme:       strPtr("jacquard"),
	})
	require.NoError(t, err)

	product, err := repo.ProductByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, product.Title)
	assert.Equal(t, "Nappe Test", *product.Title)
	assert.Equal(t, "nappe-test", product.Handle)
	require.NotNil(t, product.Vendor)
	assert.Equal(t, "GARNIER", *product.Vendor)
	require.NotNil(t, product.Category)
	assert.Equal(t, "deco", *product.Category)
	require.NotNil(t, product.Gamme)
	assert.Equal(t, "jacquard", *product.Gamme)
}

func TestUpsertProductBlankTitleFlipsHealthyProductToError(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.UpsertProduct(ctx, ProductInput{
		ProductCode: "C1",
		Handle:      "nappe-test",
		Title:       strPtr("Nappe Test"),
	})
	require.NoError(t, err)

	_, err = repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "nappe-test"})
	require.NoError(t, err)

	product, err := repo.ProductByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enums.EntityStatusError, product.Status)
	assert.Nil(t, product.Title)
	require.NotNil(t, product.ErrorMessage)
}

func TestUpsertVariantSameProductDuplicateIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	productID, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1", Title: strPtr("T")})
	require.NoError(t, err)

	first, isNew, err := repo.UpsertVariant(ctx, "VL1", productID, "https://example.com/vl1", nil, false)
	require.NoError(t, err)
	assert.True(t, isNew)

	second, isNew, err := repo.UpsertVariant(ctx, "VL1", productID, "https://example.com/other", nil, false)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first, second)

	variant, err := repo.VariantByCode(ctx, "VL1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/vl1", variant.URL)
}

func TestUpsertVariantCrossProductCollision(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	p1, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1", Title: strPtr("T1")})
	require.NoError(t, err)
	p2, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C2", Handle: "c2", Title: strPtr("T2")})
	require.NoError(t, err)

	original, _, err := repo.UpsertVariant(ctx, "VL1", p1, "https://example.com/vl1", nil, false)
	require.NoError(t, err)

	_, _, err = repo.UpsertVariant(ctx, "VL1", p2, "https://example.com/vl1", nil, false)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))

	// Soft mode preserves the original link unchanged.
	id, isNew, err := repo.UpsertVariant(ctx, "VL1", p2, "https://example.com/vl1", nil, true)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, original, id)

	variant, err := repo.VariantByCode(ctx, "VL1")
	require.NoError(t, err)
	assert.Equal(t, p1, variant.ProductID)
}

func TestRefreshVariantResetsToPending(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	productID, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1", Title: strPtr("T")})
	require.NoError(t, err)
	id, _, err := repo.UpsertVariant(ctx, "VL1", productID, "https://example.com/vl1", nil, false)
	require.NoError(t, err)

	require.NoError(t, repo.MarkVariantError(ctx, id, "timeout"))
	require.NoError(t, repo.RefreshVariant(ctx, id, "https://example.com/vl1-bis", strPtr("40x40")))

	variant, err := repo.VariantByCode(ctx, "VL1")
	require.NoError(t, err)
	assert.Equal(t, enums.EntityStatusPending, variant.Status)
	assert.Nil(t, variant.ErrorMessage)
	assert.Equal(t, "https://example.com/vl1-bis", variant.URL)
	require.NotNil(t, variant.SizeText)
	assert.Equal(t, "40x40", *variant.SizeText)
}

func TestRecordVariantResultCompleted(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	productID, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1", Title: strPtr("T")})
	require.NoError(t, err)
	id, _, err := repo.UpsertVariant(ctx, "VL1", productID, "https://example.com/vl1", nil, false)
	require.NoError(t, err)

	require.NoError(t, repo.RecordVariantResult(ctx, id, VariantFields{
		SKU:      strPtr("S1"),
		Gencode:  strPtr("12345"),
		PricePVC: strPtr("19.90"),
		Stock:    intPtr(4),
	}))

	variant, err := repo.VariantByCode(ctx, "VL1")
	require.NoError(t, err)
	assert.Equal(t, enums.EntityStatusCompleted, variant.Status)
	assert.Nil(t, variant.ErrorMessage)
	require.NotNil(t, variant.Stock)
	assert.Equal(t, 4, *variant.Stock)
}

func TestRecordVariantResultMissingFieldsNamesThem(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	productID, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1", Title: strPtr("T")})
	require.NoError(t, err)
	id, _, err := repo.UpsertVariant(ctx, "VL1", productID, "https://example.com/vl1", nil, false)
	require.NoError(t, err)

	require.NoError(t, repo.RecordVariantResult(ctx, id, VariantFields{SKU: strPtr("S1")}))

	variant, err := repo.VariantByCode(ctx, "VL1")
	require.NoError(t, err)
	assert.Equal(t, enums.EntityStatusError, variant.Status)
	require.NotNil(t, variant.ErrorMessage)
	assert.Contains(t, *variant.ErrorMessage, "gencode")
	assert.Contains(t, *variant.ErrorMessage, "price_pvc")
	assert.NotContains(t, *variant.ErrorMessage, "sku")
}

func TestMarkVariantErrorTruncatesMessage(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	productID, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1", Title: strPtr("T")})
	require.NoError(t, err)
	id, _, err := repo.UpsertVariant(ctx, "VL1", productID, "https://example.com/vl1", nil, false)
	require.NoError(t, err)

	require.NoError(t, repo.MarkVariantError(ctx, id, strings.Repeat("x", 2000)))

	variant, err := repo.VariantByCode(ctx, "VL1")
	require.NoError(t, err)
	require.NotNil(t, variant.ErrorMessage)
	assert.Len(t, *variant.ErrorMessage, 500)
}

func TestAddImageIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	productID, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1", Title: strPtr("T")})
	require.NoError(t, err)

	require.NoError(t, repo.AddImage(ctx, productID, "https://example.com/a.jpg", 1))
	require.NoError(t, repo.AddImage(ctx, productID, "https://example.com/a.jpg", 1))
	require.NoError(t, repo.AddImage(ctx, productID, "https://example.com/b.jpg", 2))

	images, err := repo.ProductImages(ctx, productID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "https://example.com/a.jpg", images[0].ImageURL)
	assert.Equal(t, 1, images[0].Position)
	assert.Equal(t, 2, images[1].Position)
}

func TestRetryCapExcludesExhaustedVariants(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	productID, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1", Title: strPtr("T")})
	require.NoError(t, err)
	id, _, err := repo.UpsertVariant(ctx, "VL1", productID, "https://example.com/vl1", nil, false)
	require.NoError(t, err)
	require.NoError(t, repo.MarkVariantError(ctx, id, "boom"))

	for i := 0; i < 3; i++ {
		variants, err := repo.ErrorVariants(ctx, VariantFilters{})
		require.NoError(t, err)
		require.Len(t, variants, 1)
		require.NoError(t, repo.IncrementVariantRetry(ctx, id))
	}

	variant, err := repo.VariantByCode(ctx, "VL1")
	require.NoError(t, err)
	assert.Equal(t, 3, variant.RetryCount)

	variants, err := repo.ErrorVariants(ctx, VariantFilters{})
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestVariantStatusCounts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	productID, err := repo.UpsertProduct(ctx, ProductInput{ProductCode: "C1", Handle: "c1", Title: strPtr("T")})
	require.NoError(t, err)

	v1, _, err := repo.UpsertVariant(ctx, "VL1", productID, "u1", nil, false)
	require.NoError(t, err)
	v2, _, err := repo.UpsertVariant(ctx, "VL2", productID, "u2", nil, false)
	require.NoError(t, err)
	_, _, err = repo.UpsertVariant(ctx, "VL3", productID, "u3", nil, false)
	require.NoError(t, err)

	require.NoError(t, repo.RecordVariantResult(ctx, v1, VariantFields{
		SKU: strPtr("S1"), Gencode: strPtr("G1"), PricePVC: strPtr("9.90"),
	}))
	require.NoError(t, repo.MarkVariantError(ctx, v2, "boom"))

	total, completed, errored, err := repo.VariantStatusCounts(ctx, productID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.EqualValues(t, 1, completed)
	assert.EqualValues(t, 1, errored)
}

func intPtr(v int) *int {
	return &v
}
