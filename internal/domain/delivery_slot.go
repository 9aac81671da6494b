package domain

import "time"

type DeliverySlot struct {
	ID       uint
	StartsAt time.Time
	EndsAt   time.Time
	Capacity int
	Enabled  bool
}
