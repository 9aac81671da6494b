package order

import (
	"database/sql"

	"go.uber.org/zap"

	"mostrador/internal/config"
	"mostrador/internal/infrastructure/metrics"
	"mostrador/internal/invoice"
	"mostrador/internal/order/controller"
	orderrepo "mostrador/internal/order/repository"
	"mostrador/internal/order/service"
	"mostrador/internal/order/usecase"
	productrepo "mostrador/internal/product/repository"
	slotrepo "mostrador/internal/slot/repository"
)

// Collaborators are the optional outer services. Nil members fall back to no-ops.
type Collaborators struct {
	Idempotency usecase.IdempotencyStore
	Events      usecase.EventPublisher
	Metrics     *metrics.Registry
}

func NewModule(db *sql.DB, cfg config.OrderConfig, deps Collaborators, logger *zap.Logger) *controller.OrderController {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	itemRepo := orderrepo.NewMySQLOrderItemRepository(db)
	auditRepo := orderrepo.NewMySQLOrderAuditRepository(db)
	location := cfg.Location()

	workflow := service.NewWorkflowService(
		db,
		orderRepo,
		itemRepo,
		auditRepo,
		orderrepo.NewMySQLOrderCounterRepository(db),
		productrepo.NewMySQLRepository(db),
		slotrepo.NewMySQLSlotRepository(db),
		logger,
		cfg.TxTimeout,
		location,
	)

	uc := usecase.NewOrderUseCase(
		workflow,
		orderRepo,
		itemRepo,
		auditRepo,
		deps.Idempotency,
		deps.Events,
		deps.Metrics,
		logger,
		usecase.Options{
			MaxRetryAttempts: cfg.MaxRetryAttempts,
			ListDefaultLimit: cfg.ListDefaultLimit,
			ListMaxLimit:     cfg.ListMaxLimit,
			Location:         location,
		},
	)

	return controller.NewOrderController(uc, invoice.NewRenderer(location), logger)
}
