package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"mostrador/internal/dto"
)

// Authenticate rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func Authenticate(tokens *TokenIssuer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				writeUnauthorized(w, "missing bearer token", logger)
				return
			}

			identity, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				logger.Warn("rejected bearer token", zap.Error(err))
				writeUnauthorized(w, err.Error(), logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	err := json.NewEncoder(w).Encode(dto.ErrorResponse{
		Status:    http.StatusUnauthorized,
		Code:      "UNAUTHORIZED",
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}
