package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	grpcapi "github.com/oshokin/commute-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/commute-alarm/internal/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	wsWriteTimeout    = 5 * time.Second
)

//nolint:gochecknoglobals // Upgrader holds no per-connection state.
var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// Handler serves the HTTP endpoints.
type Handler struct {
	// lines provides line statuses.
	lines grpcapi.LineStatuses
	// mux routes requests.
	mux *http.ServeMux
}

// NewHandler builds the endpoint mux.
func NewHandler(lines grpcapi.LineStatuses) *Handler {
	h := &Handler{
		lines: lines,
		mux:   http.NewServeMux(),
	}

	h.mux.Handle("GET /metrics", promhttp.Handler())
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.HandleFunc("GET /api/lines", h.handleLines)
	h.mux.HandleFunc("GET /ws/lines", h.handleLinesWS)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Serve runs an HTTP server on lis until ctx is canceled.
func Serve(ctx context.Context, lis net.Listener, handler http.Handler) error {
	ctx = logger.WithName(ctx, "http")

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	logger.InfoKV(ctx, "HTTP server listening", "listen_address", lis.Addr().String())

	if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}

	<-done

	return nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLines returns the cached snapshot without touching the network.
func (h *Handler) handleLines(w http.ResponseWriter, r *http.Request) {
	cached, err := h.lines.Cached(r.Context())
	if err != nil {
		logger.ErrorKV(logger.WithName(r.Context(), "http"), "Read line cache failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "line cache unavailable"})

		return
	}

	snapshot := grpcapi.LineSnapshot{Lines: cached}
	if updated, ok := h.lines.LastUpdateTime(r.Context()); ok {
		snapshot.LastUpdated = &updated
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// handleLinesWS streams every result of one fetch and closes normally.
func (h *Handler) handleLinesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	defer func() {
		_ = conn.Close()
	}()

	ctx := logger.WithName(r.Context(), "http")

	for result := range h.lines.Statuses(ctx) {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

		if err = conn.WriteJSON(grpcapi.ToSyncResult(result)); err != nil {
			logger.DebugKV(ctx, "Websocket client gone", "error", err)

			return
		}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}

// sameOrigin accepts requests without an Origin header or from the serving host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(u.Host), strings.TrimSpace(r.Host))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(v)
}
