package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"repo-digest/internal/observability/logging"
)

// HealthServer serves the worker's probes and metrics:
//
//	GET /health        liveness, always 200 while the process runs
//	GET /health/ready  200 once the scheduler is running, 503 before
//	GET /metrics       Prometheus exposition
//
// Both health responses carry the outcome of the last run.
type HealthServer struct {
	addr     string
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	isReady  *atomic.Bool

	mu      sync.Mutex
	lastRun *runStatus
	server  *http.Server
}

type runStatus struct {
	At    time.Time `json:"at"`
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
}

type healthResponse struct {
	Status  string     `json:"status"`
	LastRun *runStatus `json:"last_run,omitempty"`
}

// NewHealthServer creates a server on addr. gatherer backs /metrics;
// nil means prometheus.DefaultGatherer.
func NewHealthServer(addr string, gatherer prometheus.Gatherer, logger *slog.Logger) *HealthServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthServer{
		addr:     addr,
		logger:   logger,
		gatherer: gatherer,
		isReady:  &atomic.Bool{},
	}
}

// Handler returns the server's routes.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Start listens until ctx is done, then shuts down gracefully and returns
// http.ErrServerClosed.
func (h *HealthServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		h.logger.Error("health server failed", slog.Any("error", err))
		return err
	}
	return h.Serve(ctx, listener)
}

// Serve is Start on an existing listener.
func (h *HealthServer) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	h.mu.Lock()
	h.server = server
	h.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", listener.Addr().String()))
		errChan <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady flips the readiness probe.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

// RecordRun publishes the outcome of a run on both probes. Error messages
// are sanitized before they are exposed.
func (h *HealthServer) RecordRun(at time.Time, err error) {
	status := &runStatus{At: at.UTC(), OK: err == nil}
	if err != nil {
		status.Error = logging.SanitizeError(err)
	}
	h.mu.Lock()
	h.lastRun = status
	h.mu.Unlock()
}

func (h *HealthServer) snapshot(status string) healthResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	response := healthResponse{Status: status}
	if h.lastRun != nil {
		last := *h.lastRun
		response.LastRun = &last
	}
	return response
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.snapshot("ok"))
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if h.isReady.Load() {
		h.writeJSON(w, http.StatusOK, h.snapshot("ok"))
		return
	}
	h.writeJSON(w, http.StatusServiceUnavailable, h.snapshot("not ready"))
}

func (h *HealthServer) writeJSON(w http.ResponseWriter, code int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
