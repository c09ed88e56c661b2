// Package exportcfg resolves per-supplier CSV export configuration with a
// two-tier fallback: the supplier's own entry, else the shared "common"
// tier, else a built-in default of every column with barcode handles.
package exportcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/adsidev/catalogd/pkg/enums"
	pkgerrors "github.com/adsidev/catalogd/pkg/errors"
)

// CommonTier is the shared fallback entry name in the config file.
const CommonTier = "common"

// SupplierConfig is the effective export configuration for one supplier.
type SupplierConfig struct {
	Columns       []string
	HandleSource  enums.HandleSource
	Vendor        string
	Location      string
	Categories    []string
	Subcategories []string
}

type fileEntry struct {
	Columns       []string `json:"columns,omitempty"`
	HandleSource  string   `json:"handle_source,omitempty"`
	Vendor        string   `json:"vendor,omitempty"`
	Location      string   `json:"location,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// builtinVendors carries the display names shipped with the tool; anything
// else falls back to the supplier key itself.
var builtinVendors = map[string]string{
	"garnier": "Garnier-Thiebaut",
	"artiga":  "Artiga",
	"cristel": "Cristel",
}

// Resolver loads the supplier configuration file once and answers
// effective-config lookups. A missing file means built-in defaults only.
type Resolver struct {
	entries map[string]fileEntry
}

// NewResolver reads the JSON configuration at path. A missing file is not
// an error; a malformed one is.
func NewResolver(path string) (*Resolver, error) {
	resolver := &Resolver{entries: map[string]fileEntry{}}
	if path == "" {
		return resolver, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return resolver, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading supplier config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &resolver.entries); err != nil {
		return nil, fmt.Errorf("parsing supplier config %s: %w", path, err)
	}

	normalized := make(map[string]fileEntry, len(resolver.entries))
	for key, entry := range resolver.entries {
		normalized[strings.ToLower(key)] = entry
	}
	resolver.entries = normalized
	return resolver, nil
}

// Resolve returns the effective configuration for the supplier.
func (r *Resolver) Resolve(supplier string) (SupplierConfig, error) {
	supplier = strings.ToLower(strings.TrimSpace(supplier))

	if entry, ok := r.entries[supplier]; ok && supplier != CommonTier {
		return r.materialize(supplier, entry)
	}
	if entry, ok := r.entries[CommonTier]; ok {
		return r.materialize(supplier, entry)
	}
	return r.materialize(supplier, fileEntry{})
}

func (r *Resolver) materialize(supplier string, entry fileEntry) (SupplierConfig, error) {
	cfg := SupplierConfig{
		Columns:       entry.Columns,
		Vendor:        entry.Vendor,
		Location:      entry.Location,
		Categories:    entry.Categories,
		Subcategories: entry.Subcategories,
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = AllColumns()
	}

	source := entry.HandleSource
	if source == "" {
		source = enums.HandleSourceBarcode.String()
	}
	parsed, err := enums.ParseHandleSource(source)
	if err != nil {
		return SupplierConfig{}, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err,
			fmt.Sprintf("supplier %s: invalid handle source", supplier))
	}
	cfg.HandleSource = parsed

	if cfg.Vendor == "" {
		if vendor, ok := builtinVendors[supplier]; ok {
			cfg.Vendor = vendor
		} else {
			cfg.Vendor = supplier
		}
	}
	return cfg, nil
}

// CommonIntersection computes the implied common configuration across all
// configured suppliers: the column intersection in canonical order, and
// the shared handle source when every supplier agrees (barcode otherwise).
// It exists for display only and is never persisted.
func (r *Resolver) CommonIntersection() (SupplierConfig, error) {
	suppliers := r.knownSuppliers()
	if len(suppliers) == 0 {
		return SupplierConfig{Columns: AllColumns(), HandleSource: enums.HandleSourceBarcode}, nil
	}

	first, err := r.Resolve(suppliers[0])
	if err != nil {
		return SupplierConfig{}, err
	}
	common := map[string]bool{}
	for _, col := range first.Columns {
		common[col] = true
	}
	handleSources := map[enums.HandleSource]bool{first.HandleSource: true}

	for _, supplier := range suppliers[1:] {
		cfg, err := r.Resolve(supplier)
		if err != nil {
			return SupplierConfig{}, err
		}
		seen := map[string]bool{}
		for _, col := range cfg.Columns {
			seen[col] = true
		}
		for col := range common {
			if !seen[col] {
				delete(common, col)
			}
		}
		handleSources[cfg.HandleSource] = true
	}

	columns := make([]string, 0, len(common))
	for col := range common {
		columns = append(columns, col)
	}
	sort.Slice(columns, func(i, j int) bool {
		return columnRank[columns[i]] < columnRank[columns[j]]
	})

	source := enums.HandleSourceBarcode
	if len(handleSources) == 1 {
		for only := range handleSources {
			source = only
		}
	}
	return SupplierConfig{Columns: columns, HandleSource: source}, nil
}

func (r *Resolver) knownSuppliers() []string {
	seen := map[string]bool{}
	for supplier := range builtinVendors {
		seen[supplier] = true
	}
	for supplier := range r.entries {
		if supplier != CommonTier {
			seen[supplier] = true
		}
	}
	suppliers := make([]string, 0, len(seen))
	for supplier := range seen {
		suppliers = append(suppliers, supplier)
	}
	sort.Strings(suppliers)
	return suppliers
}
