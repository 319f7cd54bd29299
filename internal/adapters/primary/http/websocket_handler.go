package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	mw "github.com/lorrc/service-desk-insights/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/service-desk-insights/internal/adapters/primary/websocket"
	"github.com/lorrc/service-desk-insights/internal/config"
	"github.com/lorrc/service-desk-insights/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-insights/internal/core/errors"
)

// WebSocketHandler upgrades dashboard connections onto the event hub.
type WebSocketHandler struct {
	hub       *wsAdapter.Hub
	tokens    mw.TokenValidator
	snapshots SnapshotReporter
	errors    *ErrorHandler
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. The stream carries
// no ticket data, so a token is optional; a token that is sent must be
// valid.
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tokens mw.TokenValidator,
	snapshots SnapshotReporter,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:       hub,
		tokens:    tokens,
		snapshots: snapshots,
		errors:    NewErrorHandler(logger),
		logger:    logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins
	development := cfg.IsDevelopment()

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		if development {
			h.logger.Debug("allowing websocket connection in development mode", "origin", origin)
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		if originAllowed(parsedOrigin.Host, allowedOrigins) {
			return true
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// originAllowed matches host against exact entries and "*.example.com"
// wildcards, which also admit the bare domain.
func originAllowed(host string, allowed []string) bool {
	for _, a := range allowed {
		if suffix, ok := strings.CutPrefix(a, "*"); ok && strings.HasPrefix(suffix, ".") {
			if strings.HasSuffix(host, suffix) || host == suffix[1:] {
				return true
			}
		} else if host == a {
			return true
		}
	}
	return false
}

// ServeHTTP handles WebSocket connection requests
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject := ""
	if tokenString := r.URL.Query().Get("token"); tokenString != "" {
		claims, err := h.tokens.ValidateToken(tokenString)
		if err != nil {
			h.logger.WarnContext(ctx, "websocket connection rejected: invalid token",
				"remote_addr", r.RemoteAddr,
				"error", err,
			)
			h.errors.Handle(w, r, apperrors.NewUnauthorizedError("Invalid or expired token"))
			return
		}
		subject = claims.Subject
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.WarnContext(ctx, "failed to upgrade websocket connection", "error", err)
		return
	}

	client := wsAdapter.NewClient(h.hub, conn, subject, h.logger.With("request_id", requestID(r)))

	// Late joiners learn the current state without waiting for a reload.
	if snap, err := h.snapshots.Current(); err == nil {
		client.Send <- domain.NewSnapshotLoadedEvent(snap.Info())
	}

	if !client.Start() {
		h.logger.WarnContext(ctx, "websocket hub stopped, connection dropped")
		return
	}

	h.logger.InfoContext(ctx, "websocket connection established",
		"client_id", client.ID,
		"subject", subject,
		"remote_addr", r.RemoteAddr,
	)
}
