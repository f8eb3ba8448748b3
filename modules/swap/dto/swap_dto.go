package dto

import "github.com/google/uuid"

type ProposeSwapRequest struct {
	MySlotID    uuid.UUID `json:"my_slot_id" validate:"required"`
	TheirSlotID uuid.UUID `json:"their_slot_id" validate:"required"`
}

type RespondSwapRequest struct {
	Accept *bool `json:"accept" validate:"required"`
}

type RespondSwapResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}
