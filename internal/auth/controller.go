package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mostrador/internal/domain"
	"mostrador/internal/dto"
	apperrors "mostrador/internal/errors"
)

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

type Controller struct {
	users  UserFinder
	tokens *TokenIssuer
	logger *zap.Logger
}

func NewController(users UserFinder, tokens *TokenIssuer, logger *zap.Logger) *Controller {
	return &Controller{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return
	}

	if err := dto.Validate(req); err != nil {
		ve, _ := apperrors.IsValidationError(err)
		c.writeError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, ve.Details)
		return
	}

	user, err := c.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); !ok {
			logger.Error("looking up user failed", zap.Error(err))
			c.writeError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
			return
		}
		logger.Warn("login for unknown email")
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password", nil)
		return
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		logger.Warn("login with wrong password", zap.Uint("userId", user.ID))
		c.writeError(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "invalid email or password", nil)
		return
	}

	token, expiresAt, err := c.tokens.Issue(domain.Identity{UserID: user.ID, Name: user.Name, Role: user.Role})
	if err != nil {
		logger.Error("issuing token failed", zap.Error(err))
		c.writeError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
		return
	}

	logger.Info("user logged in", zap.Uint("userId", user.ID), zap.String("role", string(user.Role)))
	c.writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		Name:      user.Name,
		Role:      string(user.Role),
	})
}

func (c *Controller) writeError(w http.ResponseWriter, traceID string, status int, code string, message string, details any) {
	resp := dto.ErrorResponse{
		TraceID:   traceID,
		Status:    status,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if details != nil {
		resp.Details = details
	}
	c.writeJSON(w, status, resp)
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
