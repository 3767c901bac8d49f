package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdantiq/analytics/internal/domain"
	"github.com/verdantiq/analytics/internal/ws"
)

const sseHeartbeatInterval = 25 * time.Second

// SnapshotService is the engine contract the router serves.
type SnapshotService interface {
	Snapshot(ctx context.Context) domain.LiveAnalyticsSnapshot
	SourceHealth() map[string]string
}

// Router wires HTTP endpoints to the analytics engine.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	svc      SnapshotService
	hub      *ws.Hub
	upgrader websocket.Upgrader

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, svc SnapshotService, hub *ws.Hub) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: logger,
		svc:    svc,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("GET /live-analytics", r.instrument("/live-analytics", r.handleLiveAnalytics))
	r.mux.HandleFunc("GET /live-analytics/stream", r.handleStream)
	r.mux.HandleFunc("GET /live-analytics/ws", r.handleWebsocket)
	r.mux.HandleFunc("GET /healthz", r.instrument("/healthz", r.handleHealth))
	r.mux.Handle("GET /metrics", promhttp.Handler())
}

// instrument tags each request with an id and records logs and metrics.
func (r *Router) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, req)

		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, recorder.status, duration)
		if r.logger != nil {
			r.logger.Info("request handled",
				"request_id", requestID,
				"method", req.Method,
				"route", route,
				"status", recorder.status,
				"duration_ms", duration.Milliseconds())
		}
	}
}

// handleLiveAnalytics serves the windowed snapshot. The engine guarantees a
// well-formed snapshot even with every upstream down, so this handler never
// returns a non-200 response.
func (r *Router) handleLiveAnalytics(w http.ResponseWriter, req *http.Request) {
	snapshot := r.svc.Snapshot(req.Context())
	writeJSON(w, http.StatusOK, snapshot)
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"sources": r.svc.SourceHealth(),
	})
}

// handleStream subscribes the caller to snapshot pushes over SSE. The
// current snapshot is sent immediately so clients render without waiting
// for the next rebuild.
func (r *Router) handleStream(w http.ResponseWriter, req *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if r.hub == nil {
		writeError(w, http.StatusNotFound, "streaming disabled")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	client := ws.NewSSEClient(w, flusher, r.logger)
	r.hub.Register(client)
	defer func() {
		r.hub.Unregister(client)
		client.Close()
	}()

	if payload, err := marshalSnapshot(r.svc.Snapshot(req.Context())); err == nil {
		if err := client.Send(payload); err != nil {
			return
		}
	}

	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

// handleWebsocket subscribes the caller to snapshot pushes over websocket.
func (r *Router) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	if r.hub == nil {
		writeError(w, http.StatusNotFound, "streaming disabled")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("websocket upgrade failed", "error", err)
		}
		return
	}

	client := ws.NewClient(conn, r.logger)
	r.hub.Register(client)
	defer func() {
		r.hub.Unregister(client)
		client.Close()
	}()

	if payload, err := marshalSnapshot(r.svc.Snapshot(req.Context())); err == nil {
		if err := client.Send(payload); err != nil {
			return
		}
	}

	// drain control frames until the peer goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func marshalSnapshot(snapshot domain.LiveAnalyticsSnapshot) ([]byte, error) {
	return json.Marshal(snapshot)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}
