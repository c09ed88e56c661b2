package ingest

// ExtractionResult is the payload a scraper front-end hands over for one
// product listing, variants and gallery included.
type ExtractionResult struct {
	ProductCode string
	Title       *string
	Description *string
	Vendor      *string
	ProductType *string
	Category    *string
	Subcategory *string
	BaseURL     *string
	IsNew       bool

	// Gamme is set by the supplier families that group products into
	// collection pages.
	Gamme *GammeRef

	Variants []VariantExtraction
	Images   []string
}

// GammeRef identifies the collection page a product was found on.
type GammeRef struct {
	URL      string
	Category string
	Name     *string
}

// VariantExtraction carries both the collect-time fields and the data
// extracted from the variant page. Data pointers stay nil when the page
// did not yield them.
type VariantExtraction struct {
	CodeVL   string
	URL      string
	SizeText *string

	SKU      *string
	Gencode  *string
	PricePA  *string
	PricePVC *string
	Stock    *int
	Size     *string
	Color    *string
	Material *string
}

// RunSummary reports a batch outcome; batches never stop at the first
// failure.
type RunSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
