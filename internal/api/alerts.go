package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"terrainwatch/pkg/notify"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
	wsWriteTimeout     = 5 * time.Second
	wsBuffer           = 32
)

// HistoryReader returns persisted alerts, newest first.
type HistoryReader interface {
	RecentAlerts(ctx context.Context, limit int) ([]notify.Event, error)
}

// Subscriber hands out live alert streams.
type Subscriber interface {
	Subscribe(buffer int) (<-chan notify.Event, func())
}

// AlertsHandler serves alert history and the live alert stream.
type AlertsHandler struct {
	history  HistoryReader
	live     Subscriber
	upgrader websocket.Upgrader
}

// NewAlertsHandler creates a new AlertsHandler.
func NewAlertsHandler(history HistoryReader, live Subscriber) *AlertsHandler {
	return &AlertsHandler{
		history: history,
		live:    live,
		upgrader: websocket.Upgrader{
			EnableCompression: false,
			// The UI is served from a different origin in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleRecent handles GET /api/alerts/recent?limit=N
func (h *AlertsHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	events, err := h.history.RecentAlerts(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to read alert history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read alert history")
		return
	}
	if events == nil {
		events = []notify.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleWS handles GET /api/alerts/ws. Every alert is sent as one JSON text message.
func (h *AlertsHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Unable to upgrade alert websocket", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.live.Subscribe(wsBuffer)
	defer unsubscribe()

	// The client never sends; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Debug("Alert websocket connected", "remote", r.RemoteAddr)
	for {
		select {
		case <-closed:
			slog.Debug("Alert websocket closed", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("Alert websocket write failed", "error", err)
				return
			}
		}
	}
}
