package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"golang.org/x/time/rate"

	"github.com/projecthelena/vmprobe/internal/config"
	_ "github.com/projecthelena/vmprobe/internal/docs"
	"github.com/projecthelena/vmprobe/internal/metrics"
)

// TimestampLayout renders UTC times with millisecond precision, e.g.
// 2024-01-01T12:00:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Router struct {
	*chi.Mux
	config  *config.Config
	metrics *metrics.Registry
	limiter *IPRateLimiter
	now     func() time.Time
}

type Option func(*Router)

// WithClock overrides the time source used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// SecurityHeaders middleware adds essential security headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		next.ServeHTTP(w, r)
	})
}

// NewRouter builds the HTTP router for the informational endpoints, the
// metrics exposition and the API docs. A nil registry gets a fresh one.
func NewRouter(cfg *config.Config, reg *metrics.Registry, logger *logrus.Entry, opts ...Option) *Router {
	r := chi.NewRouter()

	if reg == nil {
		reg = metrics.NewRegistry(cfg.Server, time.Now())
	}

	rt := &Router{
		Mux:     r,
		config:  cfg,
		metrics: reg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(rt)
	}

	r.Use(middleware.RequestID)

	// Only trust X-Forwarded-For when running behind a known reverse proxy,
	// otherwise clients could pick their own rate limit bucket.
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}

	if logger != nil {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	}
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(rt.instrument)

	if cfg.RateLimit > 0 {
		rt.limiter = NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	infoH := NewInfoHandler(cfg.Server, rt.now)

	// Probes are never rate limited.
	r.Get("/health", Health(rt.now))
	r.Get("/metrics", reg.ServeHTTP)

	r.Group(func(info chi.Router) {
		if rt.limiter != nil {
			info.Use(RateLimitMiddleware(rt.limiter))
		}
		info.Get("/", infoH.Root)
		info.Get("/metadata", infoH.Metadata)
	})

	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	return rt
}

// Close stops background work owned by the router.
func (rt *Router) Close() {
	if rt.limiter != nil {
		rt.limiter.Close()
	}
}

// instrument records the status and latency of every finished request under
// its chi route pattern.
func (rt *Router) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		rt.metrics.ObserveRequest(route, r.Method, status, time.Since(start))
	})
}

// writeJSON encodes data before touching the response, so an encoding
// failure can still turn into a clean 500.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logrus.WithError(err).Error("encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
