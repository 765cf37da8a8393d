package observability

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// MetricKind identifies the shape of a registered metric.
type MetricKind string

const (
	KindCounter   MetricKind = "counter"
	KindHistogram MetricKind = "histogram"
	KindGauge     MetricKind = "gauge"
)

// Labels maps label keys to values for a single mutation.
type Labels = prometheus.Labels

// series holds the registered shape of one metric name plus the underlying
// Prometheus vector. Exactly one of the vec fields is set, matching kind.
type series struct {
	kind      MetricKind
	labelKeys []string // sorted copy, used for shape comparison
	counter   *prometheus.CounterVec
	histogram *prometheus.HistogramVec
	gauge     *prometheus.GaugeVec
}

// Registry is the process-wide collection of named, labeled metrics.
//
// It owns a private prometheus.Registry rather than the package-level default
// so the exposed series set is exactly what this process registered. The
// Registry is constructed once at startup and shared by reference; the series
// map is append-mostly after registration, and numeric state is guarded by
// client_golang's own per-series atomics, so mutations on different series
// never contend on a shared lock.
type Registry struct {
	prom *prometheus.Registry

	mu     sync.RWMutex
	series map[string]*series
}

// NewRegistry creates an empty metric registry.
func NewRegistry() *Registry {
	return &Registry{
		prom:   prometheus.NewRegistry(),
		series: make(map[string]*series),
	}
}

// Prometheus exposes the underlying registry so standard collectors
// (Go runtime, process) can be attached at startup.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.prom
}

// Register creates a new metric series family. Registering the same name twice
// with an identical kind and label-key set is a no-op; a mismatched shape
// returns DuplicateMetricError. Buckets apply to histograms only and default
// to prometheus.DefBuckets.
func (r *Registry) Register(name string, kind MetricKind, labelKeys []string, help string, buckets []float64) error {
	sorted := append([]string(nil), labelKeys...)
	sort.Strings(sorted)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.series[name]; ok {
		if existing.kind == kind && equalKeys(existing.labelKeys, sorted) {
			return nil
		}
		return &DuplicateMetricError{Name: name, Kind: existing.kind}
	}

	s := &series{kind: kind, labelKeys: sorted}
	var collector prometheus.Collector

	switch kind {
	case KindCounter:
		s.counter = prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: name, Help: help},
			labelKeys,
		)
		collector = s.counter
	case KindHistogram:
		if len(buckets) == 0 {
			buckets = prometheus.DefBuckets
		}
		s.histogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets},
			labelKeys,
		)
		collector = s.histogram
	case KindGauge:
		s.gauge = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: name, Help: help},
			labelKeys,
		)
		collector = s.gauge
	default:
		return fmt.Errorf("unsupported metric kind %q", kind)
	}

	if err := r.prom.Register(collector); err != nil {
		return fmt.Errorf("registering %s %q: %w", kind, name, err)
	}

	r.series[name] = s
	return nil
}

// MustRegister is Register but panics on error. Metric shape conflicts are
// startup bugs, so init code fails fast instead of silently redefining a
// metric.
func (r *Registry) MustRegister(name string, kind MetricKind, labelKeys []string, help string, buckets []float64) {
	if err := r.Register(name, kind, labelKeys, help, buckets); err != nil {
		panic(err)
	}
}

// Add increments a counter by amount. Amounts below zero are rejected;
// counters never decrease.
func (r *Registry) Add(name string, labels Labels, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("counter %q: negative amount %v", name, amount)
	}
	s, err := r.lookup(name, KindCounter, labels)
	if err != nil {
		return err
	}
	m, err := s.counter.GetMetricWith(labels)
	if err != nil {
		return fmt.Errorf("counter %q: %w", name, err)
	}
	m.Add(amount)
	return nil
}

// Observe records a value into a histogram.
func (r *Registry) Observe(name string, labels Labels, value float64) error {
	s, err := r.lookup(name, KindHistogram, labels)
	if err != nil {
		return err
	}
	m, err := s.histogram.GetMetricWith(labels)
	if err != nil {
		return fmt.Errorf("histogram %q: %w", name, err)
	}
	m.Observe(value)
	return nil
}

// GaugeSet sets a gauge to value.
func (r *Registry) GaugeSet(name string, labels Labels, value float64) error {
	m, err := r.gauge(name, labels)
	if err != nil {
		return err
	}
	m.Set(value)
	return nil
}

// GaugeAdd increments a gauge by delta.
func (r *Registry) GaugeAdd(name string, labels Labels, delta float64) error {
	m, err := r.gauge(name, labels)
	if err != nil {
		return err
	}
	m.Add(delta)
	return nil
}

// GaugeSub decrements a gauge by delta.
func (r *Registry) GaugeSub(name string, labels Labels, delta float64) error {
	m, err := r.gauge(name, labels)
	if err != nil {
		return err
	}
	m.Sub(delta)
	return nil
}

func (r *Registry) gauge(name string, labels Labels) (prometheus.Gauge, error) {
	s, err := r.lookup(name, KindGauge, labels)
	if err != nil {
		return nil, err
	}
	m, err := s.gauge.GetMetricWith(labels)
	if err != nil {
		return nil, fmt.Errorf("gauge %q: %w", name, err)
	}
	return m, nil
}

// lookup resolves a registered series and validates the mutation's label keys
// against the keys fixed at registration time.
func (r *Registry) lookup(name string, kind MetricKind, labels Labels) (*series, error) {
	r.mu.RLock()
	s, ok := r.series[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownMetricError{Name: name}
	}
	if s.kind != kind {
		return nil, fmt.Errorf("metric %q is a %s, not a %s", name, s.kind, kind)
	}

	if len(labels) != len(s.labelKeys) {
		return nil, &LabelCardinalityError{Name: name, Want: s.labelKeys, Got: labelKeysOf(labels)}
	}
	for _, k := range s.labelKeys {
		if _, ok := labels[k]; !ok {
			return nil, &LabelCardinalityError{Name: name, Want: s.labelKeys, Got: labelKeysOf(labels)}
		}
	}
	return s, nil
}

// RenderSnapshot produces the Prometheus text exposition of every registered
// series. Each series is read consistently with respect to its own writers;
// no lock spans the whole render, so concurrent mutations remain unblocked.
func (r *Registry) RenderSnapshot() ([]byte, error) {
	families, err := r.prom.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return nil, fmt.Errorf("encoding metric family %q: %w", mf.GetName(), err)
		}
	}
	return buf.Bytes(), nil
}

// Handler returns the scrape endpoint handler. It serves the same snapshot
// RenderSnapshot produces, with the standard text exposition content type.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func labelKeysOf(labels Labels) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
