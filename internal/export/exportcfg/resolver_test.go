package exportcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsidev/catalogd/pkg/enums"
	pkgerrors "github.com/adsidev/catalogd/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "csv_config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestResolverMissingFileUsesDefaults(t *testing.T) {
	resolver, err := NewResolver(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	cfg, err := resolver.Resolve("garnier")
	require.NoError(t, err)
	assert.Equal(t, AllColumns(), cfg.Columns)
	assert.Equal(t, enums.HandleSourceBarcode, cfg.HandleSource)
	assert.Equal(t, "Garnier-Thiebaut", cfg.Vendor)
}

func TestResolverMalformedFile(t *testing.T) {
	path := writeConfig(t, "{not json")
	_, err := NewResolver(path)
	require.Error(t, err)
}

func TestResolverSupplierOverridesCommon(t *testing.T) {
	path := writeConfig(t, `{
		"common": {"columns": ["Handle", "Title"], "handle_source": "sku"},
		"artiga": {"columns": ["Handle", "Title", "Vendor"], "handle_source": "title", "vendor": "Artiga Maison"}
	}`)
	resolver, err := NewResolver(path)
	require.NoError(t, err)

	cfg, err := resolver.Resolve("artiga")
	require.NoError(t, err)
	assert.Equal(t, []string{"Handle", "Title", "Vendor"}, cfg.Columns)
	assert.Equal(t, enums.HandleSourceTitle, cfg.HandleSource)
	assert.Equal(t, "Artiga Maison", cfg.Vendor)
}

func TestResolverFallsBackToCommonTier(t *testing.T) {
	path := writeConfig(t, `{
		"common": {"columns": ["Handle", "Title"], "handle_source": "sku"}
	}`)
	resolver, err := NewResolver(path)
	require.NoError(t, err)

	cfg, err := resolver.Resolve("cristel")
	require.NoError(t, err)
	assert.Equal(t, []string{"Handle", "Title"}, cfg.Columns)
	assert.Equal(t, enums.HandleSourceSKU, cfg.HandleSource)
	assert.Equal(t, "Cristel", cfg.Vendor)
}

func TestResolverUnknownSupplierVendorFallback(t *testing.T) {
	resolver, err := NewResolver("")
	require.NoError(t, err)

	cfg, err := resolver.Resolve("Lafuma")
	require.NoError(t, err)
	assert.Equal(t, "lafuma", cfg.Vendor)
	assert.Equal(t, enums.HandleSourceBarcode, cfg.HandleSource)
}

func TestResolverInvalidHandleSource(t *testing.T) {
	path := writeConfig(t, `{"garnier": {"handle_source": "upc"}}`)
	resolver, err := NewResolver(path)
	require.NoError(t, err)

	_, err = resolver.Resolve("garnier")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
}

func TestCommonIntersection(t *testing.T) {
	path := writeConfig(t, `{
		"garnier": {"columns": ["Title", "Handle", "Vendor", "Tags"], "handle_source": "sku"},
		"artiga": {"columns": ["Handle", "Tags", "Title", "Status"], "handle_source": "sku"},
		"cristel": {"columns": ["Tags", "Handle", "Title"], "handle_source": "sku"}
	}`)
	resolver, err := NewResolver(path)
	require.NoError(t, err)

	common, err := resolver.CommonIntersection()
	require.NoError(t, err)
	assert.Equal(t, []string{"Handle", "Title", "Tags"}, common.Columns)
	assert.Equal(t, enums.HandleSourceSKU, common.HandleSource)
}

func TestCommonIntersectionMixedHandleSources(t *testing.T) {
	path := writeConfig(t, `{
		"garnier": {"handle_source": "sku"},
		"artiga": {"handle_source": "title"}
	}`)
	resolver, err := NewResolver(path)
	require.NoError(t, err)

	common, err := resolver.CommonIntersection()
	require.NoError(t, err)
	assert.Equal(t, enums.HandleSourceBarcode, common.HandleSource)
}
