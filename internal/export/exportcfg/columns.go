package exportcfg

// shopifyAllColumns is the full Shopify product-CSV column set, in import
// order. Column projection never emits anything outside this list.
var shopifyAllColumns = []string{
	"Handle",
	"Title",
	"Body (HTML)",
	"Vendor",
	"Product Category",
	"Type",
	"Tags",
	"Published",
	"Option1 Name",
	"Option1 Value",
	"Option2 Name",
	"Option2 Value",
	"Option3 Name",
	"Option3 Value",
	"Variant SKU",
	"Variant Grams",
	"Variant Inventory Tracker",
	"Variant Inventory Qty",
	"Variant Inventory Policy",
	"Variant Fulfillment Service",
	"Variant Price",
	"Variant Compare At Price",
	"Variant Requires Shipping",
	"Variant Taxable",
	"Variant Barcode",
	"Image Src",
	"Image Position",
	"Image Alt Text",
	"Gift Card",
	"SEO Title",
	"SEO Description",
	"Google Shopping / Google Product Category",
	"Google Shopping / Gender",
	"Google Shopping / Age Group",
	"Google Shopping / MPN",
	"Google Shopping / Condition",
	"Google Shopping / Custom Product",
	"Variant Image",
	"Variant Weight Unit",
	"Variant Tax Code",
	"Cost per item",
	"Included / United States",
	"Price / United States",
	"Compare At Price / United States",
	"Included / International",
	"Price / International",
	"Compare At Price / International",
	"Status",
	"location",
	"On hand (new)",
	"On hand (current)",
}

// AllColumns returns a copy of the full Shopify column set.
func AllColumns() []string {
	out := make([]string, len(shopifyAllColumns))
	copy(out, shopifyAllColumns)
	return out
}

var columnRank = func() map[string]int {
	ranks := make(map[string]int, len(shopifyAllColumns))
	for i, col := range shopifyAllColumns {
		ranks[col] = i
	}
	return ranks
}()
