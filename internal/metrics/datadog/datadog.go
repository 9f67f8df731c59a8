// Package datadog implements a Datadog backend for the internal/metrics
// package.
//
// Detection and analytics calls are short and frequent, so the backend
// buffers observations in memory and submits them on a ticker (default:
// once per minute) plus one final flush on Close. This yields a usable
// time series for long imports and still captures short one-shot runs.
//
// Concurrency model:
//   - Callers may emit from any goroutine; buffers are lock-protected.
//   - Flush snapshots and resets buffers under the lock, then submits
//     out-of-lock.
//   - The flush loop calls Flush periodically; Close stops the loop.
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"callsift/internal/metrics"
)

// Options controls Datadog backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric.
	// If empty, defaults to "callsift".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod"}).
	Tags []string

	// FlushEvery controls how often buffered metrics are submitted.
	// If <= 0, defaults to 60 seconds.
	FlushEvery time.Duration

	// Logger receives flush-loop errors. Nil discards them; the flush loop
	// must never take down the caller.
	Logger Logger

	// Unexported test seams. Production code never sets them; unit tests
	// use them to avoid real network submission and nondeterministic
	// clocks.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// Logger is the minimal logging seam; *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// metricsSubmitter is the minimal interface needed to submit metrics.
// The concrete *datadogV2.MetricsApi satisfies it; tests install a fake.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags []string
	log      Logger

	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu       sync.Mutex
	counters map[string]float64   // metric+tags key -> delta sum
	samples  map[string][]float64 // metric+tags key -> observations
	keyTags  map[string][]string  // key -> resolved tag set
	keyName  map[string]string    // key -> metric name
}

// NewBackend constructs a Datadog backend using the official client and
// starts the periodic flush loop.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "callsift"
	}

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	submitter := opts.submitter
	if submitter == nil {
		client := dd.NewAPIClient(dd.NewConfiguration())
		submitter = datadogV2.NewMetricsApi(client)
	}

	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	b := &Backend{
		api:        submitter,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   baseTags,
		log:        logger,
		now:        nowFn,
		newTicker:  newTicker,
		counters:   make(map[string]float64),
		samples:    make(map[string][]float64),
		keyTags:    make(map[string][]string),
		keyName:    make(map[string]string),
	}

	go b.loop()
	return b, nil
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := b.Flush(); err != nil {
				b.log.Printf("metrics: datadog flush: %v", err)
			}
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the background flush loop and performs one final Flush.
// Close must be called at most once.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	key, tags := b.seriesKey(name, labels)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.counters[key] += delta
	b.keyTags[key] = tags
	b.keyName[key] = name
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}
	key, tags := b.seriesKey(name, labels)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples[key] = append(b.samples[key], value)
	b.keyTags[key] = tags
	b.keyName[key] = name
}

// seriesKey builds a stable buffer key and the resolved tag set for a
// metric name plus label map. Labels sort by key so the same logical
// series always buffers together.
func (b *Backend) seriesKey(name string, labels metrics.Labels) (string, []string) {
	tags := append([]string(nil), b.baseTags...)
	if len(labels) > 0 {
		keys := make([]string, 0, len(labels))
		for k := range labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			tags = append(tags, k+":"+labels[k])
		}
	}
	return name + "\x00" + strings.Join(tags, "\x00"), tags
}

type snapshot struct {
	counters map[string]float64
	samples  map[string][]float64
	keyTags  map[string][]string
	keyName  map[string]string
}

// snapshotAndReset grabs buffered metrics and resets internal buffers.
func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := snapshot{
		counters: b.counters,
		samples:  b.samples,
		keyTags:  b.keyTags,
		keyName:  b.keyName,
	}
	b.counters = make(map[string]float64)
	b.samples = make(map[string][]float64)
	b.keyTags = make(map[string][]string)
	b.keyName = make(map[string]string)
	return s
}

func (s snapshot) isEmpty() bool {
	return len(s.counters) == 0 && len(s.samples) == 0
}

// Flush submits buffered metrics to Datadog and resets local buffers.
//
// Buffers reset even if submission fails: the analytical path must stay
// fast and must not accumulate unbounded retry state.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	series := buildSeries(snap, b.now().Unix())
	payload := datadogV2.MetricPayload{Series: series}

	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries constructs Datadog series for a snapshot at a fixed
// timestamp. It is pure (no locks, clocks, or network), which keeps it
// unit-testable.
func buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	keys := make([]string, 0, len(s.counters)+len(s.samples))
	for k := range s.counters {
		keys = append(keys, k)
	}
	for k := range s.samples {
		if _, dup := s.counters[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	series := make([]datadogV2.MetricSeries, 0, len(keys)*4)
	for _, k := range keys {
		name := metricName(s.keyName[k])
		tags := s.keyTags[k]

		if v, ok := s.counters[k]; ok && v != 0 {
			series = append(series, countSeries(name, v, tags, nowUnix))
		}

		samples := s.samples[k]
		if len(samples) == 0 {
			continue
		}
		cp := append([]float64(nil), samples...)
		sort.Float64s(cp)

		series = append(series,
			gaugeSeries(name+".p50", percentileNearestRank(cp, 0.50), tags, nowUnix),
			gaugeSeries(name+".p95", percentileNearestRank(cp, 0.95), tags, nowUnix),
			gaugeSeries(name+".max", cp[len(cp)-1], tags, nowUnix),
			gaugeSeries(name+".samples", float64(len(cp)), tags, nowUnix),
		)
	}
	return series
}

// metricName converts the internal snake_case metric id into Datadog's
// dotted convention ("callsift_detect_total" -> "callsift.detect.total").
func metricName(id string) string {
	return strings.ReplaceAll(id, "_", ".")
}

func countSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func gaugeSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV parses comma-separated tags like "env:prod,service:api".
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
