package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/transport"
	"github.com/helpdeskhq/helpdesk-portal/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (*Principal, string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	tokenTTL time.Duration
}

func NewHandler(svc ServiceAPI, tokenTTL time.Duration) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 4 * time.Hour
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		tokenTTL:    tokenTTL,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	principal, token, err := h.Service.Authenticate(dto)
	if err != nil {
		h.Logger.Error("authentication failed", "error", err)

		switch err {
		case ErrInvalidCredentials:
			h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			if _, ok := err.(ValidationError); ok {
				h.WriteError(w, http.StatusBadRequest, err.Error())
			} else {
				h.WriteError(w, http.StatusInternalServerError, "internal server error")
			}
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokenTTL.Seconds()),
	})

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		ID:          principal.ID,
		Role:        principal.Role,
		FirstName:   principal.FirstName,
		LastName:    principal.LastName,
		AccessToken: token,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me echoes the authenticated principal back to the client.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := internal.PrincipalFromContext(r.Context())
	if !ok || principal == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.WriteJSON(w, http.StatusOK, principal)
}

// AuthMiddleware validates the token (bearer header or cookie) and attaches
// the principal to the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractToken(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.Logger.Error("token validation failed", "error", err)
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		uid, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			h.Logger.Error("token subject is not a user id", "subject", claims.Subject)
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		principal := &Principal{
			ID:         uid,
			Role:       claims.Role,
			FirstName:  claims.FirstName,
			LastName:   claims.LastName,
			Department: claims.Department,
			Position:   claims.Position,
		}

		ctx := internal.ContextWithPrincipal(r.Context(), principal)
		ctx = logger.With(ctx, "userID", claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
