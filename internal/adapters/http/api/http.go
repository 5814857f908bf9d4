// Package api serves the admin HTTP endpoints: metrics, stats and the
// websocket query ingress.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/audioquery/internal/domain/model"
	"github.com/okian/audioquery/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
)

// Enqueuer accepts messages for the listener without blocking.
type Enqueuer interface {
	Enqueue(ctx context.Context, m model.Message) error
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Server wires the admin routes.
type Server struct {
	inbox          Enqueuer
	stats          StatsProvider
	queryPath      string
	originPatterns []string
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithQueryPath sets the OSC address given to websocket queries.
func WithQueryPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.queryPath = path
		}
	}
}

// WithOriginPatterns lists browser origins, besides the server's own host,
// that may open /ws. Patterns use path.Match syntax, e.g. "*.example.com".
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) {
		s.originPatterns = append(s.originPatterns, patterns...)
	}
}

// NewServer creates the admin server.
func NewServer(inbox Enqueuer, stats StatsProvider, opts ...Option) *Server {
	s := &Server{inbox: inbox, stats: stats, queryPath: "/query"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.handleStats, "stats"))
	mux.HandleFunc("/ws", MetricsMiddleware(s.handleWebsocket, "ws"))
	mux.HandleFunc("/openapi.yaml", MetricsMiddleware(handleOpenAPI, "openapi"))
}

// HTTPServer returns an http.Server serving the admin routes on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	mux := http.NewServeMux()
	s.Register(mux)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// handleHealth serves the Prometheus exposition from the custom registry.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	writeJSON(w, http.StatusOK, s.stats.GetStats())
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
