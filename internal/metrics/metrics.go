// Package metrics owns the Prometheus registry behind /metrics: per-route
// request counters and latency histograms plus a few process gauges.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/projecthelena/vmprobe/internal/config"
)

const (
	RequestsTotal   = "http_requests_total"
	RequestDuration = "http_request_duration_seconds"
	BuildInfo       = "vmprobe_build_info"
	StartTime       = "vmprobe_start_time_seconds"

	// UnmatchedRoute labels requests that no route handled.
	UnmatchedRoute = "unmatched"
)

// Registry is safe for concurrent use. Each instance carries its own
// prometheus.Registry, so tests can build as many as they like.
type Registry struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	handler  http.Handler
}

func NewRegistry(info config.ServerConfig, start time.Time) *Registry {
	reg := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: RequestsTotal,
		Help: "HTTP requests served, by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    RequestDuration,
		Help:    "Time spent serving HTTP requests, by route pattern and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: BuildInfo,
		Help: "Instance metadata of this process; always 1.",
		ConstLabels: prometheus.Labels{
			"project":     info.ProjectName,
			"environment": info.Environment,
			"instance_id": info.InstanceID,
			"region":      info.Region,
		},
	})
	buildInfo.Set(1)

	startTime := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: StartTime,
		Help: "Unix time the process started, in seconds.",
	})
	startTime.Set(float64(start.UnixNano()) / float64(time.Second))

	reg.MustRegister(
		requests,
		duration,
		buildInfo,
		startTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{
		reg:      reg,
		requests: requests,
		duration: duration,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
}

// ObserveRequest records one finished request.
func (r *Registry) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if route == "" {
		route = UnmatchedRoute
	}
	r.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	r.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Requests returns the current count for one label combination. It reads
// through Gather so asking about a series never creates it.
func (r *Registry) Requests(route, method string, code int) uint64 {
	mfs, err := r.reg.Gather()
	if err != nil {
		return 0
	}
	want := map[string]string{"route": route, "method": method, "status": strconv.Itoa(code)}
	for _, mf := range mfs {
		if mf.GetName() != RequestsTotal {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m.GetLabel(), want) {
				return uint64(m.GetCounter().GetValue())
			}
		}
	}
	return 0
}

// Gatherer exposes the underlying registry, e.g. for promhttp or testutil.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ServeHTTP writes the exposition in the format negotiated from Accept.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, lp := range pairs {
		if v, ok := want[lp.GetName()]; !ok || v != lp.GetValue() {
			return false
		}
	}
	return true
}
