package product

import (
	"database/sql"

	"go.uber.org/zap"

	"mostrador/internal/product/repository"
)

func NewModule(db *sql.DB, logger *zap.Logger) *Controller {
	repo := repository.NewMySQLRepository(db)
	svc := NewService(repo)
	uc := NewUseCase(svc)
	return NewController(uc, logger)
}
