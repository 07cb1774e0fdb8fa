package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pmtrack/internal/backend"
	"pmtrack/internal/cache"
	"pmtrack/internal/log"
	"pmtrack/internal/metrics"
	"pmtrack/internal/middleware/ratelimit"
	"pmtrack/internal/middleware/security"
	"pmtrack/internal/middleware/trace"
)

const overviewKey = "overview"

// Options configures NewServer.
type Options struct {
	Addr    string
	Backend *backend.Backend
	Logger  *log.Logger
	// Registry receives the server's collectors and backs /metrics; a fresh
	// registry is used when nil.
	Registry         *prometheus.Registry
	RateLimit        ratelimit.Config
	OverviewCacheTTL time.Duration
	TrustedProxies   []string
}

type Server struct {
	http.Server
	backend  *backend.Backend
	metrics  *metrics.Metrics
	detector *security.Detector
	limiter  *ratelimit.Limiter

	// overview is nil when caching is disabled.
	overview *cache.LRU[overviewView]
	janitor  *cache.Janitor

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		backend:  opts.Backend,
		metrics:  metrics.New(reg),
		detector: security.NewDetector(),
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		started:  time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}
	if opts.OverviewCacheTTL > 0 {
		s.overview = cache.NewLRU[overviewView](1, opts.OverviewCacheTTL)
		s.janitor = cache.NewJanitor(s.overview)
		s.janitor.Start(time.Minute)
	}

	r := chi.NewRouter()
	r.Use(trace.NewMiddleware(s.metrics).Middleware)
	r.Use(log.Middleware(logger.WithComponent(log.ComponentHTTP), trace.RequestID, s.detector.ExtractClientIP))
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no route for " + r.URL.Path).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(*http.Request) {
			s.metrics.IncRateLimited()
		}))

		r.Get("/calendar", s.handleCurrentCalendar)
		r.Get("/calendar/{year}", s.handleCalendar)
		r.Get("/dates/parse", s.handleParseDate)

		r.Group(func(r chi.Router) {
			r.Use(s.identify)

			r.Get("/calendar/{year}/entries", s.handleYearEntries)

			r.Get("/entries", s.handleEntriesForDate)
			r.Post("/entries", s.handleCreateEntry)
			r.Get("/entries/{id}", s.handleGetEntry)
			r.Patch("/entries/{id}", s.handleUpdateEntry)
			r.Delete("/entries/{id}", s.handleDeleteEntry)

			r.Get("/projects/{id}/cost", s.handleProjectCost)
			r.Get("/units/{partNumber}/hours", s.handleUnitHours)
			r.Get("/overview", s.handleOverview)
		})
	})

	s.Handler = r
	return s
}

// invalidateOverview drops the cached overview after a write.
func (s *Server) invalidateOverview() {
	if s.overview != nil {
		s.overview.Purge()
	}
}

// Shutdown gracefully shuts down the server and its background loops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.janitor != nil {
			s.janitor.Stop()
		}
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
