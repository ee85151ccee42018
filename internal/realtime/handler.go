package realtime

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/helpdeskhq/helpdesk-portal/internal/auth"
	"github.com/helpdeskhq/helpdesk-portal/pkg/logger"
)

// TokenValidator checks the identity token presented at upgrade time.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

// Handler upgrades HTTP requests into hub and log stream sessions.
// Browsers cannot set headers on websocket requests, so the token is also
// accepted as a query parameter or the session cookie.
type Handler struct {
	hub      *Hub
	logs     *LogStream
	tokens   TokenValidator
	policy   auth.Policy
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHandler(hub *Hub, logs *LogStream, tokens TokenValidator, policy auth.Policy) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		hub:    hub,
		logs:   logs,
		tokens: tokens,
		policy: policy,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: lg,
	}
}

// Notifications is the `/ws/notifications` endpoint.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	h.hub.Register(Principal{
		UserID:     userID,
		Role:       claims.Role,
		Department: claims.Department,
	}, conn)
}

// Logs is the `/admin/logs` endpoint, restricted to admin roles.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if !h.policy.Allows(auth.OpViewLogStream, claims.Role) {
		http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	h.logs.Attach(conn)
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) >= 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}
	if token == "" {
		if cookie, err := r.Cookie("token"); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		http.Error(w, "missing authorization token", http.StatusUnauthorized)
		return nil, false
	}

	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}
