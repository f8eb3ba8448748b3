package queue

import (
	"encoding/json"

	"slotswap-api/core/config"
	"slotswap-api/core/constants"
	"slotswap-api/core/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// NotificationPayload is the body of a notification:deliver task.
type NotificationPayload struct {
	UserID  uuid.UUID      `json:"user_id"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Queue wraps the asynq client used by services to enqueue background tasks.
type Queue struct {
	client *asynq.Client
}

func NewQueue(cfg config.RedisConfig) *Queue {
	return &Queue{client: asynq.NewClient(RedisOpt(cfg))}
}

// Enqueuer is the service-facing side of the queue.
type Enqueuer interface {
	EnqueueNotification(payload *NotificationPayload) error
}

func (q *Queue) EnqueueNotification(payload *NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	task := asynq.NewTask(constants.TaskNotificationDeliver, body)
	info, err := q.client.Enqueue(task, asynq.MaxRetry(3))
	if err != nil {
		return err
	}
	logger.Debug("Queue:EnqueueNotification", "task_id", info.ID, "user_id", payload.UserID)
	return nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}
