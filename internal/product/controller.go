package product

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"mostrador/internal/dto"
	apperrors "mostrador/internal/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Controller struct {
	useCase UseCase
	logger  *zap.Logger
}

func NewController(useCase UseCase, logger *zap.Logger) *Controller {
	return &Controller{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *Controller) HandleSearchProducts(w http.ResponseWriter, r *http.Request) {
	var req SearchProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := dto.Validate(req); err != nil {
		ve, _ := apperrors.IsValidationError(err)
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}

	resp, err := c.useCase.SearchProducts(r.Context(), req)
	if err != nil {
		c.writeInternalError(w, "search products failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		ve, _ := apperrors.IsValidationError(err)
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}

	resp, err := c.useCase.ListProducts(r.Context(), limit, offset)
	if err != nil {
		c.writeInternalError(w, "list products failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func parsePage(r *http.Request) (int, int, error) {
	limit, offset := defaultListLimit, 0
	query := r.URL.Query()

	if raw := query.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return 0, 0, apperrors.NewValidationError("invalid limit", apperrors.ValidationDetail{
				Field:   "limit",
				Message: "limit must be a positive integer",
			})
		}
		limit = min(v, maxListLimit)
	}

	if raw := query.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, 0, apperrors.NewValidationError("invalid offset", apperrors.ValidationDetail{
				Field:   "offset",
				Message: "offset must be a non-negative integer",
			})
		}
		offset = v
	}

	return limit, offset, nil
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *Controller) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *Controller) writeInternalError(w http.ResponseWriter, msg string, err error) {
	c.logger.Error(msg, zap.Error(err))
	c.writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "INTERNAL_ERROR",
		"message": "an unexpected error occurred",
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
