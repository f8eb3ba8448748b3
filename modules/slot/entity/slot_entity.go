package entity

import (
	"time"

	"slotswap-api/core/entity"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	StatusBusy        SlotStatus = "BUSY"
	StatusSwappable   SlotStatus = "SWAPPABLE"
	StatusSwapPending SlotStatus = "SWAP_PENDING"
)

// IsToggleable reports whether a user may set this status directly.
// SWAP_PENDING is reserved for the swap engine.
func (s SlotStatus) IsToggleable() bool {
	return s == StatusBusy || s == StatusSwappable
}

type Slot struct {
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Title     string     `db:"title" json:"title"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   time.Time  `db:"end_time" json:"end_time"`
	Status    SlotStatus `db:"status" json:"status"`
	entity.BaseEntity
}

// MarketplaceSlot is a swappable slot of another user, joined with its
// owner's public profile fields.
type MarketplaceSlot struct {
	Slot
	OwnerName   string `db:"owner_name" json:"owner_name"`
	OwnerHandle string `db:"owner_handle" json:"owner_handle"`
}

type PaginatedSlotEntity = entity.Pagination[Slot]
type PaginatedMarketplaceEntity = entity.Pagination[MarketplaceSlot]
