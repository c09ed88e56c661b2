package enums

import "fmt"

// HandleSource selects how the export Handle is derived for a supplier.
type HandleSource string

const (
	HandleSourceBarcode HandleSource = "barcode"
	HandleSourceSKU     HandleSource = "sku"
	HandleSourceTitle   HandleSource = "title"
	HandleSourceCustom  HandleSource = "custom"
)

var validHandleSources = []HandleSource{
	HandleSourceBarcode,
	HandleSourceSKU,
	HandleSourceTitle,
	HandleSourceCustom,
}

// String implements fmt.Stringer.
func (h HandleSource) String() string {
	return string(h)
}

// IsValid reports whether the value is a known HandleSource.
func (h HandleSource) IsValid() bool {
	for _, candidate := range validHandleSources {
		if candidate == h {
			return true
		}
	}
	return false
}

// ParseHandleSource converts raw input into a HandleSource.
func ParseHandleSource(value string) (HandleSource, error) {
	for _, candidate := range validHandleSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid handle source %q", value)
}
