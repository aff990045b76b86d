// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	SearchesStarted   prometheus.Counter
	SearchesSucceeded prometheus.Counter
	SearchesNoMatch   prometheus.Counter
	SearchesFailed    prometheus.Counter
	MetadataFetches   prometheus.Counter
	MetadataFailures  prometheus.Counter
	AdultFiltered     prometheus.Counter
	RepliesText       prometheus.Counter
	RepliesVideo      prometheus.Counter
	RepliesHelp       prometheus.Counter
	PipelineFailures  prometheus.Counter

	// Histograms (seconds)
	SearchDuration   prometheus.Observer
	MetadataDuration prometheus.Observer
	PipelineDuration prometheus.Observer
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SearchesStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_searches_started_total", Help: "Number of reverse-search submissions started"})
		SearchesSucceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_searches_succeeded_total", Help: "Number of reverse-searches returning a match"})
		SearchesNoMatch = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_searches_no_match_total", Help: "Number of reverse-searches returning an empty result list"})
		SearchesFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_searches_failed_total", Help: "Number of reverse-searches failing with provider or transport errors"})
		MetadataFetches = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_metadata_fetches_total", Help: "Number of catalog metadata lookups"})
		MetadataFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_metadata_failures_total", Help: "Number of catalog metadata lookups that degraded to blank fields"})
		AdultFiltered = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_adult_filtered_total", Help: "Number of replies withheld from the originating chat due to the adult flag"})
		RepliesText = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_replies_text_total", Help: "Number of text-only replies sent"})
		RepliesVideo = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_replies_video_total", Help: "Number of video replies sent"})
		RepliesHelp = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_replies_help_total", Help: "Number of help/usage replies sent for imageless messages"})
		PipelineFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "anitrace_pipeline_failures_total", Help: "Number of pipeline invocations ending in the generic failure reply"})
		SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "anitrace_search_duration_seconds", Help: "Reverse-search call duration seconds", Buckets: prometheus.DefBuckets})
		MetadataDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "anitrace_metadata_duration_seconds", Help: "Catalog metadata call duration seconds", Buckets: prometheus.DefBuckets})
		PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "anitrace_pipeline_duration_seconds", Help: "Total per-event pipeline duration seconds", Buckets: prometheus.DefBuckets})
	})
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
