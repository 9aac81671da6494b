package auth

import (
	"database/sql"

	"go.uber.org/zap"

	"mostrador/internal/config"
	"mostrador/internal/user/repository"
)

func NewModule(db *sql.DB, cfg config.AuthConfig, logger *zap.Logger) (*Controller, *TokenIssuer) {
	tokens := NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	return NewController(repository.NewMySQLUserRepository(db), tokens, logger), tokens
}
