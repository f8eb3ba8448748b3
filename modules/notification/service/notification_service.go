package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	coreEntity "slotswap-api/core/entity"
	"slotswap-api/core/logger"
	"slotswap-api/core/params"
	"slotswap-api/core/queue"
	"slotswap-api/modules/notification/dto"
	"slotswap-api/modules/notification/entity"
	"slotswap-api/modules/notification/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type NotificationService struct {
	repo repository.NotificationRepositoryInterface
}

func NewNotificationService(repo repository.NotificationRepositoryInterface) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) error {
	notif := &entity.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Data:    entity.JSONB(req.Data),
		IsRead:  false,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	return s.repo.Create(ctx, notif)
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.GetByUserID(ctx, userID, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return s.repo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// HandleDeliverTask consumes notification:deliver tasks from the queue and
// persists them as notification rows.
func (s *NotificationService) HandleDeliverTask(ctx context.Context, task *asynq.Task) error {
	var payload queue.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal notification payload: %w", err)
	}

	err := s.Create(ctx, &dto.CreateNotificationRequest{
		UserID:  payload.UserID,
		Title:   payload.Title,
		Message: payload.Message,
		Type:    payload.Type,
		Data:    payload.Data,
	})
	if err != nil {
		logger.Error("NotificationService:HandleDeliverTask:Create:Error:", err)
		return err
	}

	logger.Info("NotificationService:HandleDeliverTask:Delivered",
		"user_id", payload.UserID,
		"type", payload.Type,
	)
	return nil
}
