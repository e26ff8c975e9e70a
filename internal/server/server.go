// Package server provides the yomu HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/config"
	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/pkg/utils"
)

// requestTimeout bounds a request, model calls included.
const requestTimeout = 5 * time.Minute

// defaultMaxBodyBytes leaves room for the multipart or JSON envelope around a
// document of extract.MaxDocumentBytes.
const defaultMaxBodyBytes = extract.MaxDocumentBytes + 1<<20

// Summarizer produces document summaries.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (models.SummaryResult, error)
}

// Answerer answers questions about a document.
type Answerer interface {
	Handle(ctx context.Context, req models.AskRequest) (models.Answer, error)
}

// WatchService manages inbox directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Providers names the configured model providers, for status output.
type Providers struct {
	Embedding     string `json:"embedding"`
	Generation    string `json:"generation"`
	Summarization string `json:"summarization"`
}

// Server is the HTTP server for the yomu API.
type Server struct {
	summaries Summarizer
	answers   Answerer
	extractor *extract.Extractor
	providers Providers
	logger    *zap.Logger

	cfg        *config.Config
	cfgMu      sync.Mutex
	configPath string
	watch      WatchService

	maxBodyBytes int64

	version string
	started time.Time
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithWatch enables the watch directory endpoints. When configPath is set,
// directory changes are saved to it.
func WithWatch(ws WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = ws
		s.configPath = configPath
	}
}

// WithVersion sets the version reported by the status endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithMaxBodyBytes caps request bodies at n bytes. Larger bodies are
// rejected with 400.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates a server with the given pipelines.
func NewServer(cfg *config.Config, summaries Summarizer, answers Answerer, extractor *extract.Extractor, providers Providers, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		summaries: summaries,
		answers:   answers,
		extractor: extractor,
		providers: providers,
		logger:    utils.OrNop(logger),
		cfg:       cfg,
		started:   time.Now(),

		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(middleware.RequestSize(s.maxBodyBytes))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/summarize", s.handleSummarize)
		r.Post("/ask", s.handleAsk)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
