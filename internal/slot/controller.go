package slot

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mostrador/internal/domain"
)

const upcomingLimit = 100

type Repository interface {
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]domain.DeliverySlot, error)
}

type SlotDTO struct {
	ID       uint      `json:"id"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	Capacity int       `json:"capacity"`
}

type ListSlotsResponse struct {
	Slots []SlotDTO `json:"slots"`
}

type Controller struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewController(repo Repository, logger *zap.Logger) *Controller {
	return &Controller{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (c *Controller) HandleListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := c.repo.ListUpcoming(r.Context(), c.now().UTC(), upcomingLimit)
	if err != nil {
		c.logger.Error("list delivery slots failed", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "INTERNAL_ERROR",
			"message": "an unexpected error occurred",
		})
		return
	}

	resp := ListSlotsResponse{Slots: make([]SlotDTO, 0, len(slots))}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, SlotDTO{
			ID:       s.ID,
			StartsAt: s.StartsAt,
			EndsAt:   s.EndsAt,
			Capacity: s.Capacity,
		})
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
