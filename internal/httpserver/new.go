package httpserver

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/Makepad-fr/tada/internal/metrics"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/pkg/log"
)

// HTTPServer serves the todo collection API.
type HTTPServer struct {
	gin         *gin.Engine
	l           log.Logger
	port        int
	mode        string
	environment string

	store    store.Store
	registry *prometheus.Registry
	metrics  *metrics.HTTP
	limiter  *rate.Limiter
	now      func() time.Time
}

// Config is the dependency bag passed to New().
type Config struct {
	Logger      log.Logger
	Port        int
	Mode        string
	Environment string

	Store store.Store

	// RateLimit is the allowed requests per second across all clients; 0 disables it.
	RateLimit float64
	RateBurst int

	// Now overrides the clock used for due-date filters.
	Now func() time.Time
}

// New creates a new HTTPServer instance with all routes mapped.
func New(cfg Config) (*HTTPServer, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	srv := &HTTPServer{
		l:           cfg.Logger,
		gin:         gin.New(),
		port:        cfg.Port,
		mode:        cfg.Mode,
		environment: cfg.Environment,
		store:       cfg.Store,
		registry:    prometheus.NewRegistry(),
		now:         cfg.Now,
	}
	if srv.now == nil {
		srv.now = time.Now
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		srv.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}

	srv.metrics = metrics.NewHTTP(srv.registry)
	srv.registry.MustRegister(metrics.NewStoreCollector(srv.store))
	srv.mapHandlers()

	return srv, nil
}

func (srv *HTTPServer) validate() error {
	if srv.l == nil {
		return errors.New("logger is required")
	}
	if srv.store == nil {
		return errors.New("store is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	return nil
}
