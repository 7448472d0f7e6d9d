package authhandler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"staff/internal/domain/auth"
	"staff/internal/transport/http/api"
	"staff/internal/transport/http/middleware"
	"staff/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	logger  *zap.Logger
}

func NewHandler(service *auth.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, logger: logger.Named("authhandler")}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}

	token, user, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.String("requestId", requestID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  map[string]any{"id": user.ID, "email": user.Email},
	}, requestID)
}

// HandleLogout only acknowledges: tokens are stateless and expire on their own.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"status": "logged_out", "message": "Вы вышли из системы."}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"id": user.UserID, "email": user.Email}, middleware.GetRequestID(r.Context()))
}
