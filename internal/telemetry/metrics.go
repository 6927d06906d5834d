package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/jwstudio/portal"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Token metrics
	TokensGeneratedTotal         metric.Int64Counter
	InsecureTokensTotal          metric.Int64Counter
	TokenCollisionsTotal         metric.Int64Counter
	TokenAllocationFailuresTotal metric.Int64Counter

	// Domain metrics
	ProjectsCreatedTotal metric.Int64Counter
	ContactRequestsTotal metric.Int64Counter
	NotifyFailuresTotal  metric.Int64Counter
	MediaUploadsTotal    metric.Int64Counter
	MediaUploadBytes     metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.TokensGeneratedTotal, _ = meter.Int64Counter(
		"portal.tokens.generated.total",
		metric.WithDescription("Total number of candidate tokens generated"),
		metric.WithUnit("{token}"),
	)

	m.InsecureTokensTotal, _ = meter.Int64Counter(
		"portal.tokens.insecure.total",
		metric.WithDescription("Tokens generated after the secure entropy source failed"),
		metric.WithUnit("{token}"),
	)

	m.TokenCollisionsTotal, _ = meter.Int64Counter(
		"portal.tokens.collisions.total",
		metric.WithDescription("Generated tokens that were already taken"),
		metric.WithUnit("{token}"),
	)

	m.TokenAllocationFailuresTotal, _ = meter.Int64Counter(
		"portal.tokens.allocation_failures.total",
		metric.WithDescription("Auto-generations that exhausted the retry bound"),
		metric.WithUnit("{failure}"),
	)

	m.ProjectsCreatedTotal, _ = meter.Int64Counter(
		"portal.projects.created.total",
		metric.WithDescription("Total number of projects created"),
		metric.WithUnit("{project}"),
	)

	m.ContactRequestsTotal, _ = meter.Int64Counter(
		"portal.contacts.received.total",
		metric.WithDescription("Total number of contact requests received"),
		metric.WithUnit("{request}"),
	)

	m.NotifyFailuresTotal, _ = meter.Int64Counter(
		"portal.contacts.notify_failures.total",
		metric.WithDescription("Contact notifications that could not be delivered"),
		metric.WithUnit("{failure}"),
	)

	m.MediaUploadsTotal, _ = meter.Int64Counter(
		"portal.media.uploads.total",
		metric.WithDescription("Total number of media uploads"),
		metric.WithUnit("{file}"),
	)

	m.MediaUploadBytes, _ = meter.Int64Counter(
		"portal.media.uploads.bytes",
		metric.WithDescription("Bytes uploaded to the media library"),
		metric.WithUnit("By"),
	)

	return m
}
