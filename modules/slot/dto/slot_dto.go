package dto

import "time"

type CreateSlotRequest struct {
	Title     string    `json:"title" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type UpdateSlotRequest struct {
	Title     *string    `json:"title,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

type UpdateSlotStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=BUSY SWAPPABLE"`
}
