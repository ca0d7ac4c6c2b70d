// Package httpserver exposes the record store, the match index and the SQL
// mirror over a read-only JSON API.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/pfwatch/internal/duckdb"
	"github.com/tinytelemetry/pfwatch/internal/filter"
	"github.com/tinytelemetry/pfwatch/internal/metrics"
	"github.com/tinytelemetry/pfwatch/internal/model"
	"github.com/tinytelemetry/pfwatch/internal/pipeline"
)

// QueryStore is the narrow mirror contract required by the HTTP API.
type QueryStore interface {
	ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error)
	MatchCount(ctx context.Context) (int64, error)
	TopValues(ctx context.Context, dimension string, limit int, window time.Duration) ([]duckdb.DimensionCount, error)
}

// Deps are the read handles the API serves from. Mirror and Exporter may
// be nil; their endpoints then answer 503 and 404 respectively.
type Deps struct {
	Records  *pipeline.Store
	Matches  *pipeline.MatchIndex
	Filter   *filter.Filter
	Metrics  *metrics.Collector
	Exporter *metrics.Exporter
	Mirror   QueryStore
}

// Server provides the HTTP API.
type Server struct {
	addr      string
	deps      Deps
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	stopOnce  sync.Once
}

// NewServer creates a new HTTP API server. An empty addr uses
// model.DefaultAPIAddr.
func NewServer(addr string, deps Deps) *Server {
	if addr == "" {
		addr = model.DefaultAPIAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		deps:      deps,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/records/:index", s.handleRecord)
	api.GET("/matches", s.handleMatches)
	api.GET("/filter", s.handleFilter)
	api.GET("/schema", s.handleSchema)
	api.GET("/top/:dimension", s.handleTop)
	api.POST("/query", s.handleQuery)

	if s.deps.Exporter != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Exporter.Handler()))
	}
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logf("serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.cancel()
		if s.server == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.server.Shutdown(ctx)
	})
	return err
}
