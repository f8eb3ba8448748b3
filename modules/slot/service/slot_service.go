package service

import (
	"context"
	"time"

	coreEntity "slotswap-api/core/entity"
	"slotswap-api/core/errors"
	"slotswap-api/core/logger"
	"slotswap-api/core/params"
	"slotswap-api/modules/slot/dto"
	"slotswap-api/modules/slot/entity"
	"slotswap-api/modules/slot/repository"

	"github.com/google/uuid"
)

type SlotServiceInterface interface {
	CreateSlot(ctx context.Context, userID uuid.UUID, req *dto.CreateSlotRequest) (*entity.Slot, *errors.AppError)
	GetMySlots(ctx context.Context, userID uuid.UUID, params params.QueryParams) (*entity.PaginatedSlotEntity, *errors.AppError)
	UpdateSlot(ctx context.Context, userID uuid.UUID, slotID uuid.UUID, req *dto.UpdateSlotRequest) (*entity.Slot, *errors.AppError)
	DeleteSlot(ctx context.Context, userID uuid.UUID, slotID uuid.UUID) *errors.AppError
	UpdateStatus(ctx context.Context, userID uuid.UUID, slotID uuid.UUID, status entity.SlotStatus) (*entity.Slot, *errors.AppError)
	GetMarketplace(ctx context.Context, userID uuid.UUID, params params.QueryParams) (*entity.PaginatedMarketplaceEntity, *errors.AppError)
}

type SlotService struct {
	repo repository.SlotRepositoryInterface
}

func NewSlotService(repo repository.SlotRepositoryInterface) *SlotService {
	return &SlotService{repo: repo}
}

func (s *SlotService) CreateSlot(ctx context.Context, userID uuid.UUID, req *dto.CreateSlotRequest) (*entity.Slot, *errors.AppError) {
	if !req.EndTime.After(req.StartTime) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "End time must be after start time", nil)
	}

	slot := &entity.Slot{
		UserID:    userID,
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    entity.StatusBusy,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to create slot", err)
	}

	logger.Info("SlotService:CreateSlot:Created", "slot_id", slot.ID, "user_id", userID)
	return slot, nil
}

func (s *SlotService) GetMySlots(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedSlotEntity, *errors.AppError) {
	result, err := s.repo.GetByUserID(ctx, userID, queryParams)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get slots", err)
	}
	return result, nil
}

func (s *SlotService) UpdateSlot(ctx context.Context, userID uuid.UUID, slotID uuid.UUID, req *dto.UpdateSlotRequest) (*entity.Slot, *errors.AppError) {
	slot, err := s.repo.GetByID(ctx, slotID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get slot", err)
	}
	if slot == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Slot not found", nil)
	}
	if slot.UserID != userID {
		return nil, errors.NewAppError(errors.ErrForbidden, "You do not own this slot", nil)
	}

	if req.Title != nil {
		slot.Title = *req.Title
	}
	if req.StartTime != nil {
		slot.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		slot.EndTime = *req.EndTime
	}
	if !slot.EndTime.After(slot.StartTime) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "End time must be after start time", nil)
	}

	rows, err := s.repo.Update(ctx, slot)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update slot", err)
	}
	if rows == 0 {
		return nil, errors.NewAppError(errors.ErrNotFound, "Slot not found", nil)
	}
	return slot, nil
}

func (s *SlotService) DeleteSlot(ctx context.Context, userID uuid.UUID, slotID uuid.UUID) *errors.AppError {
	slot, err := s.repo.GetByID(ctx, slotID)
	if err != nil {
		return errors.NewAppError(errors.ErrGetFailed, "Failed to get slot", err)
	}
	if slot == nil {
		return errors.NewAppError(errors.ErrNotFound, "Slot not found", nil)
	}
	if slot.UserID != userID {
		return errors.NewAppError(errors.ErrForbidden, "You do not own this slot", nil)
	}

	rows, err := s.repo.Delete(ctx, slotID, userID)
	if err != nil {
		return errors.NewAppError(errors.ErrDeleteFailed, "Failed to delete slot", err)
	}
	if rows == 0 {
		// Either a swap claimed the slot after the read above, or it is
		// already part of a pending swap.
		return errors.NewAppError(errors.ErrConflict, "Slot is part of a pending swap", nil)
	}

	logger.Info("SlotService:DeleteSlot:Deleted", "slot_id", slotID, "user_id", userID)
	return nil
}

func (s *SlotService) UpdateStatus(ctx context.Context, userID uuid.UUID, slotID uuid.UUID, status entity.SlotStatus) (*entity.Slot, *errors.AppError) {
	if !status.IsToggleable() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Status must be BUSY or SWAPPABLE", nil)
	}

	slot, err := s.repo.GetByID(ctx, slotID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get slot", err)
	}
	if slot == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Slot not found", nil)
	}
	if slot.UserID != userID {
		return nil, errors.NewAppError(errors.ErrForbidden, "You do not own this slot", nil)
	}

	rows, err := s.repo.UpdateStatus(ctx, slotID, userID, status)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update slot status", err)
	}
	if rows == 0 {
		return nil, errors.NewAppError(errors.ErrConflict, "Slot is part of a pending swap", nil)
	}

	slot.Status = status
	logger.Info("SlotService:UpdateStatus:Updated", "slot_id", slotID, "status", status)
	return slot, nil
}

func (s *SlotService) GetMarketplace(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedMarketplaceEntity, *errors.AppError) {
	result, err := s.repo.GetMarketplace(ctx, userID, queryParams)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get marketplace", err)
	}
	return result, nil
}
