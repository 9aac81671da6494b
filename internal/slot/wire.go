package slot

import (
	"database/sql"

	"go.uber.org/zap"

	"mostrador/internal/slot/repository"
)

func NewModule(db *sql.DB, logger *zap.Logger) *Controller {
	return NewController(repository.NewMySQLSlotRepository(db), logger)
}
