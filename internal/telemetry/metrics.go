package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/extbundle"
)

// Metrics holds the OpenTelemetry instruments recorded around builds
type Metrics struct {
	// Build metrics
	BuildsTotal       metric.Int64Counter
	BuildErrorsTotal  metric.Int64Counter
	BuildDuration     metric.Float64Histogram
	BundleBytes       metric.Int64Histogram
	ModulesBundled    metric.Int64Histogram
	UncoveredFiles    metric.Int64Counter
	WatchRebuildTotal metric.Int64Counter

	// Manifest metrics
	ManifestsWritten  metric.Int64Counter
	ArchiveBytesSaved metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments bind to the global meter provider at first use, so InitTelemetry
// must run before the first build to export anything.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.BuildsTotal, _ = meter.Int64Counter(
		"extbundle.builds.total",
		metric.WithDescription("Total number of bundle builds"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"extbundle.builds.errors.total",
		metric.WithDescription("Total number of bundle builds that failed"),
		metric.WithUnit("{build}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"extbundle.builds.duration",
		metric.WithDescription("Duration of bundle builds"),
		metric.WithUnit("ms"),
	)

	m.BundleBytes, _ = meter.Int64Histogram(
		"extbundle.bundle.size",
		metric.WithDescription("Size of the emitted bundle"),
		metric.WithUnit("By"),
	)

	m.ModulesBundled, _ = meter.Int64Histogram(
		"extbundle.bundle.modules",
		metric.WithDescription("Number of source modules included in the bundle"),
		metric.WithUnit("{module}"),
	)

	m.UncoveredFiles, _ = meter.Int64Counter(
		"extbundle.coverage.uncovered.total",
		metric.WithDescription("Reachable files that no transform rule covers"),
		metric.WithUnit("{file}"),
	)

	m.WatchRebuildTotal, _ = meter.Int64Counter(
		"extbundle.watch.rebuilds.total",
		metric.WithDescription("Total number of rebuilds triggered by watch mode"),
		metric.WithUnit("{build}"),
	)

	m.ManifestsWritten, _ = meter.Int64Counter(
		"extbundle.manifest.written.total",
		metric.WithDescription("Total number of build manifests written"),
		metric.WithUnit("{manifest}"),
	)

	m.ArchiveBytesSaved, _ = meter.Int64Counter(
		"extbundle.manifest.archive.saved",
		metric.WithDescription("Bytes saved by zstd archives of bundle outputs"),
		metric.WithUnit("By"),
	)

	return m
}
