package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records counters for ingestion, retries and exports.
// All methods are nil-safe so callers can run without a registry.
type CatalogMetrics struct {
	productsIngested *prometheus.CounterVec
	variantsIngested *prometheus.CounterVec
	retryAttempts    *prometheus.CounterVec
	probeFailures    prometheus.Counter
	exportRows       *prometheus.CounterVec
	exportDuration   *prometheus.HistogramVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	productsIngested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_products_ingested_total",
		Help: "Products upserted during ingestion, by resulting status.",
	}, []string{"supplier", "status"})
	variantsIngested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_variants_ingested_total",
		Help: "Variants recorded during ingestion, by resulting status.",
	}, []string{"supplier", "status"})
	retryAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_retry_attempts_total",
		Help: "Data-retry attempts consumed, by entity kind.",
	}, []string{"entity"})
	probeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_probe_failures_total",
		Help: "Connectivity probes that found the supplier unreachable.",
	})
	exportRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_export_rows_total",
		Help: "CSV rows written per export run.",
	}, []string{"supplier"})
	exportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_export_duration_seconds",
		Help:    "Duration of CSV export runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"supplier"})

	reg.MustRegister(productsIngested, variantsIngested, retryAttempts, probeFailures, exportRows, exportDuration)
	return &CatalogMetrics{
		productsIngested: productsIngested,
		variantsIngested: variantsIngested,
		retryAttempts:    retryAttempts,
		probeFailures:    probeFailures,
		exportRows:       exportRows,
		exportDuration:   exportDuration,
	}
}

// IncProductIngested counts one product upsert with its resulting status.
func (m *CatalogMetrics) IncProductIngested(supplier, status string) {
	if m == nil || m.productsIngested == nil {
		return
	}
	m.productsIngested.WithLabelValues(normalizeLabel(supplier), normalizeLabel(status)).Inc()
}

// IncVariantIngested counts one variant write with its resulting status.
func (m *CatalogMetrics) IncVariantIngested(supplier, status string) {
	if m == nil || m.variantsIngested == nil {
		return
	}
	m.variantsIngested.WithLabelValues(normalizeLabel(supplier), normalizeLabel(status)).Inc()
}

// IncRetryAttempt counts one consumed data-retry for the entity kind.
func (m *CatalogMetrics) IncRetryAttempt(entity string) {
	if m == nil || m.retryAttempts == nil {
		return
	}
	m.retryAttempts.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncProbeFailure counts one failed connectivity probe.
func (m *CatalogMetrics) IncProbeFailure() {
	if m == nil || m.probeFailures == nil {
		return
	}
	m.probeFailures.Inc()
}

// AddExportRows counts rows written by an export run.
func (m *CatalogMetrics) AddExportRows(supplier string, rows int) {
	if m == nil || m.exportRows == nil {
		return
	}
	m.exportRows.WithLabelValues(normalizeLabel(supplier)).Add(float64(rows))
}

// ObserveExportDuration records how long an export run took.
func (m *CatalogMetrics) ObserveExportDuration(supplier string, duration time.Duration) {
	if m == nil || m.exportDuration == nil {
		return
	}
	m.exportDuration.WithLabelValues(normalizeLabel(supplier)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
