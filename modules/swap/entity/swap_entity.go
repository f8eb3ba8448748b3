package entity

import (
	"time"

	"slotswap-api/core/entity"

	"github.com/google/uuid"
)

type SwapStatus string

const (
	StatusPending  SwapStatus = "PENDING"
	StatusAccepted SwapStatus = "ACCEPTED"
	StatusRejected SwapStatus = "REJECTED"
)

// SwapRequest is one bilateral trade proposal. It is created once by a
// propose and moved exactly once to a terminal status by a response.
type SwapRequest struct {
	RequesterID     uuid.UUID  `db:"requester_id" json:"requester_id"`
	RequesterSlotID uuid.UUID  `db:"requester_slot_id" json:"requester_slot_id"`
	OwnerID         uuid.UUID  `db:"owner_id" json:"owner_id"`
	OwnerSlotID     uuid.UUID  `db:"owner_slot_id" json:"owner_slot_id"`
	Status          SwapStatus `db:"status" json:"status"`
	entity.BaseEntity
}

// SwapRequestDetail joins a request with both slots and both parties,
// as shown in the incoming/outgoing listings.
type SwapRequestDetail struct {
	SwapRequest
	RequesterName      string    `db:"requester_name" json:"requester_name"`
	RequesterHandle    string    `db:"requester_handle" json:"requester_handle"`
	OwnerName          string    `db:"owner_name" json:"owner_name"`
	OwnerHandle        string    `db:"owner_handle" json:"owner_handle"`
	RequesterSlotTitle string    `db:"requester_slot_title" json:"requester_slot_title"`
	RequesterSlotStart time.Time `db:"requester_slot_start" json:"requester_slot_start"`
	RequesterSlotEnd   time.Time `db:"requester_slot_end" json:"requester_slot_end"`
	OwnerSlotTitle     string    `db:"owner_slot_title" json:"owner_slot_title"`
	OwnerSlotStart     time.Time `db:"owner_slot_start" json:"owner_slot_start"`
	OwnerSlotEnd       time.Time `db:"owner_slot_end" json:"owner_slot_end"`
}

type PaginatedSwapRequestEntity = entity.Pagination[SwapRequestDetail]
