package service

import (
	"bytes"
	"context"
	"time"

	"slotswap-api/core/config"
	"slotswap-api/core/database"
	coreEntity "slotswap-api/core/entity"
	"slotswap-api/core/errors"
	"slotswap-api/core/logger"
	"slotswap-api/core/params"
	"slotswap-api/core/queue"
	notifEntity "slotswap-api/modules/notification/entity"
	slotEntity "slotswap-api/modules/slot/entity"
	slotRepository "slotswap-api/modules/slot/repository"
	"slotswap-api/modules/swap/dto"
	"slotswap-api/modules/swap/entity"
	"slotswap-api/modules/swap/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
)

const expireBatchSize = 100

type SwapServiceInterface interface {
	ProposeSwap(ctx context.Context, requesterID uuid.UUID, req *dto.ProposeSwapRequest) (*entity.SwapRequest, *errors.AppError)
	RespondToSwap(ctx context.Context, callerID uuid.UUID, requestID uuid.UUID, accept bool) (*entity.SwapRequest, *errors.AppError)
	GetIncoming(ctx context.Context, userID uuid.UUID, status string, params params.QueryParams) (*entity.PaginatedSwapRequestEntity, *errors.AppError)
	GetOutgoing(ctx context.Context, userID uuid.UUID, status string, params params.QueryParams) (*entity.PaginatedSwapRequestEntity, *errors.AppError)
}

// SwapService is the swap orchestrator. Both ProposeSwap and
// RespondToSwap run as a single database transaction in which every
// status transition is a conditional update. A conditional update that
// hits zero rows means a concurrent transaction won the race; the whole
// transaction rolls back and the caller gets a Conflict.
type SwapService struct {
	db       database.IDatabase
	repo     repository.SwapRepositoryInterface
	slotRepo slotRepository.SlotRepositoryInterface
	queue    queue.Enqueuer
}

func NewSwapService(db database.IDatabase, repo repository.SwapRepositoryInterface, slotRepo slotRepository.SlotRepositoryInterface, queue queue.Enqueuer) *SwapService {
	return &SwapService{db: db, repo: repo, slotRepo: slotRepo, queue: queue}
}

func (s *SwapService) ProposeSwap(ctx context.Context, requesterID uuid.UUID, req *dto.ProposeSwapRequest) (*entity.SwapRequest, *errors.AppError) {
	tx, err := s.db.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("SwapService:ProposeSwap:BeginTx:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to start transaction", err)
	}
	defer tx.Rollback()

	mySlot, err := s.slotRepo.GetByIDTx(ctx, tx, req.MySlotID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get slot", err)
	}
	theirSlot, err := s.slotRepo.GetByIDTx(ctx, tx, req.TheirSlotID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get slot", err)
	}
	if mySlot == nil || theirSlot == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Slot not found", nil)
	}
	if mySlot.UserID != requesterID {
		return nil, errors.NewAppError(errors.ErrForbidden, "You do not own the offered slot", nil)
	}
	if req.MySlotID == req.TheirSlotID || mySlot.UserID == theirSlot.UserID {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "Cannot swap a slot with yourself", nil)
	}
	if mySlot.Status != slotEntity.StatusSwappable || theirSlot.Status != slotEntity.StatusSwappable {
		return nil, errors.NewAppError(errors.ErrConflict, "Both slots must be swappable", nil)
	}

	// The reads above give friendly errors; the conditional updates are
	// what actually guard against a concurrent proposal. Flipping both
	// slots in id order keeps row-lock acquisition global: two mirrored
	// proposals on the same pair queue up instead of deadlocking.
	pending := [2]struct{ slotID, ownerID uuid.UUID }{
		{req.MySlotID, requesterID},
		{req.TheirSlotID, theirSlot.UserID},
	}
	if bytes.Compare(pending[1].slotID[:], pending[0].slotID[:]) < 0 {
		pending[0], pending[1] = pending[1], pending[0]
	}
	for _, p := range pending {
		rows, err := s.slotRepo.MarkSwapPendingTx(ctx, tx, p.slotID, p.ownerID)
		if err != nil {
			if database.IsLockConflict(err) {
				return nil, errors.NewAppError(errors.ErrConflict, "Slot is no longer swappable", err)
			}
			return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to mark slot pending", err)
		}
		if rows == 0 {
			return nil, errors.NewAppError(errors.ErrConflict, "Slot is no longer swappable", nil)
		}
	}

	swap := &entity.SwapRequest{
		RequesterID:     requesterID,
		RequesterSlotID: req.MySlotID,
		OwnerID:         theirSlot.UserID,
		OwnerSlotID:     req.TheirSlotID,
		Status:          entity.StatusPending,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	if err := s.repo.CreateTx(ctx, tx, swap); err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to create swap request", err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("SwapService:ProposeSwap:Commit:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to commit transaction", err)
	}

	logger.Info("SwapService:ProposeSwap:Created",
		"swap_id", swap.ID,
		"requester_id", requesterID,
		"owner_id", swap.OwnerID,
	)
	s.notify(swap.OwnerID, "New swap request", "Someone proposed a swap for one of your slots", notifEntity.TypeSwapRequested, swap.ID)
	return swap, nil
}

func (s *SwapService) RespondToSwap(ctx context.Context, callerID uuid.UUID, requestID uuid.UUID, accept bool) (*entity.SwapRequest, *errors.AppError) {
	tx, err := s.db.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("SwapService:RespondToSwap:BeginTx:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to start transaction", err)
	}
	defer tx.Rollback()

	swap, err := s.repo.GetByIDTx(ctx, tx, requestID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get swap request", err)
	}
	if swap == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Swap request not found", nil)
	}
	if swap.Status != entity.StatusPending {
		return nil, errors.NewAppError(errors.ErrConflict, "Swap request has already been resolved", nil)
	}
	if swap.OwnerID != callerID {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the slot owner may respond", nil)
	}

	terminal := entity.StatusRejected
	if accept {
		terminal = entity.StatusAccepted
	}

	// PENDING to terminal is conditional. A concurrent response commits
	// first and this one sees zero rows.
	rows, err := s.repo.UpdateStatusTx(ctx, tx, requestID, entity.StatusPending, terminal)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update swap request", err)
	}
	if rows == 0 {
		return nil, errors.NewAppError(errors.ErrConflict, "Swap request has already been resolved", nil)
	}

	if accept {
		if appErr := s.applyAccept(ctx, tx, swap); appErr != nil {
			return nil, appErr
		}
	} else {
		if appErr := s.applyReject(ctx, tx, swap); appErr != nil {
			return nil, appErr
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("SwapService:RespondToSwap:Commit:Error:", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to commit transaction", err)
	}

	swap.Status = terminal
	logger.Info("SwapService:RespondToSwap:Resolved",
		"swap_id", swap.ID,
		"status", terminal,
		"caller_id", callerID,
	)
	if accept {
		s.notify(swap.RequesterID, "Swap accepted", "Your swap request was accepted", notifEntity.TypeSwapAccepted, swap.ID)
	} else {
		s.notify(swap.RequesterID, "Swap rejected", "Your swap request was rejected", notifEntity.TypeSwapRejected, swap.ID)
	}
	return swap, nil
}

// applyAccept transfers ownership of both slots and marks them busy.
func (s *SwapService) applyAccept(ctx context.Context, tx *sqlx.Tx, swap *entity.SwapRequest) *errors.AppError {
	requesterSlot, err := s.slotRepo.GetByIDTx(ctx, tx, swap.RequesterSlotID)
	if err != nil {
		return errors.NewAppError(errors.ErrGetFailed, "Failed to get slot", err)
	}
	ownerSlot, err := s.slotRepo.GetByIDTx(ctx, tx, swap.OwnerSlotID)
	if err != nil {
		return errors.NewAppError(errors.ErrGetFailed, "Failed to get slot", err)
	}
	if requesterSlot == nil || ownerSlot == nil {
		return errors.NewAppError(errors.ErrNotFound, "Slot no longer exists", nil)
	}

	rows, err := s.slotRepo.ResolveTx(ctx, tx, swap.RequesterSlotID, swap.OwnerID, slotEntity.StatusBusy)
	if err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "Failed to transfer slot", err)
	}
	if rows == 0 {
		return errors.NewAppError(errors.ErrConflict, "Slot is not pending this swap", nil)
	}

	rows, err = s.slotRepo.ResolveTx(ctx, tx, swap.OwnerSlotID, swap.RequesterID, slotEntity.StatusBusy)
	if err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "Failed to transfer slot", err)
	}
	if rows == 0 {
		return errors.NewAppError(errors.ErrConflict, "Slot is not pending this swap", nil)
	}
	return nil
}

// applyReject releases both slots back to swappable, ownership unchanged.
func (s *SwapService) applyReject(ctx context.Context, tx *sqlx.Tx, swap *entity.SwapRequest) *errors.AppError {
	rows, err := s.slotRepo.ResolveTx(ctx, tx, swap.RequesterSlotID, swap.RequesterID, slotEntity.StatusSwappable)
	if err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "Failed to release slot", err)
	}
	if rows == 0 {
		return errors.NewAppError(errors.ErrConflict, "Slot is not pending this swap", nil)
	}

	rows, err = s.slotRepo.ResolveTx(ctx, tx, swap.OwnerSlotID, swap.OwnerID, slotEntity.StatusSwappable)
	if err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "Failed to release slot", err)
	}
	if rows == 0 {
		return errors.NewAppError(errors.ErrConflict, "Slot is not pending this swap", nil)
	}
	return nil
}

func (s *SwapService) GetIncoming(ctx context.Context, userID uuid.UUID, status string, queryParams params.QueryParams) (*entity.PaginatedSwapRequestEntity, *errors.AppError) {
	result, err := s.repo.GetIncoming(ctx, userID, status, queryParams)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get incoming swaps", err)
	}
	return result, nil
}

func (s *SwapService) GetOutgoing(ctx context.Context, userID uuid.UUID, status string, queryParams params.QueryParams) (*entity.PaginatedSwapRequestEntity, *errors.AppError) {
	result, err := s.repo.GetOutgoing(ctx, userID, status, queryParams)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "Failed to get outgoing swaps", err)
	}
	return result, nil
}

// HandleExpireTask rejects PENDING requests older than the configured
// TTL so their slots do not stay pending forever.
func (s *SwapService) HandleExpireTask(ctx context.Context, task *asynq.Task) error {
	ttl := config.Get().Swap.PendingTTL
	if ttl <= 0 {
		return nil
	}

	expired, err := s.repo.ListExpiredPending(ctx, time.Now().Add(-ttl), expireBatchSize)
	if err != nil {
		return err
	}

	for _, swap := range expired {
		if appErr := s.expireOne(ctx, &swap); appErr != nil {
			// A concurrent response beat the sweeper; nothing to do.
			if appErr.Code == errors.ErrConflict {
				continue
			}
			logger.Error("SwapService:HandleExpireTask:Error:", appErr)
			continue
		}
		s.notify(swap.RequesterID, "Swap expired", "Your swap request expired without a response", notifEntity.TypeSwapExpired, swap.ID)
		s.notify(swap.OwnerID, "Swap expired", "A swap request for one of your slots expired", notifEntity.TypeSwapExpired, swap.ID)
	}
	if len(expired) > 0 {
		logger.Info("SwapService:HandleExpireTask:Swept", "count", len(expired))
	}
	return nil
}

func (s *SwapService) expireOne(ctx context.Context, swap *entity.SwapRequest) *errors.AppError {
	tx, err := s.db.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to start transaction", err)
	}
	defer tx.Rollback()

	rows, err := s.repo.UpdateStatusTx(ctx, tx, swap.ID, entity.StatusPending, entity.StatusRejected)
	if err != nil {
		return errors.NewAppError(errors.ErrUpdateFailed, "Failed to update swap request", err)
	}
	if rows == 0 {
		return errors.NewAppError(errors.ErrConflict, "Swap request has already been resolved", nil)
	}
	if appErr := s.applyReject(ctx, tx, swap); appErr != nil {
		return appErr
	}

	if err := tx.Commit(); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to commit transaction", err)
	}
	return nil
}

// notify enqueues a delivery task. Failures are logged and swallowed,
// the swap itself has already committed.
func (s *SwapService) notify(userID uuid.UUID, title, message, notifType string, swapID uuid.UUID) {
	if s.queue == nil {
		return
	}
	err := s.queue.EnqueueNotification(&queue.NotificationPayload{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notifType,
		Data:    map[string]any{"swap_request_id": swapID.String()},
	})
	if err != nil {
		logger.Error("SwapService:notify:Enqueue:Error:", err)
	}
}
