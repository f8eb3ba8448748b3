package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"slotswap-api/core/database"
	"slotswap-api/core/logger"
	"slotswap-api/core/params"
	"slotswap-api/modules/swap/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SwapRepositoryInterface interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, swap *entity.SwapRequest) error
	GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*entity.SwapRequest, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to entity.SwapStatus) (int64, error)
	GetIncoming(ctx context.Context, ownerID uuid.UUID, status string, params params.QueryParams) (*entity.PaginatedSwapRequestEntity, error)
	GetOutgoing(ctx context.Context, requesterID uuid.UUID, status string, params params.QueryParams) (*entity.PaginatedSwapRequestEntity, error)
	ListExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]entity.SwapRequest, error)
}

type SwapRepository struct {
	db database.IDatabase
}

func NewSwapRepository(db database.IDatabase) *SwapRepository {
	return &SwapRepository{db: db}
}

func (r *SwapRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, swap *entity.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (requester_id, requester_slot_id, owner_id, owner_slot_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := tx.QueryRowContext(ctx, query,
		swap.RequesterID, swap.RequesterSlotID, swap.OwnerID, swap.OwnerSlotID,
		swap.Status, swap.CreatedAt, swap.UpdatedAt,
	).Scan(&swap.ID)
	if err != nil {
		logger.Error("SwapRepository:CreateTx:Error:", err)
		return err
	}
	return nil
}

func (r *SwapRepository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*entity.SwapRequest, error) {
	var swap entity.SwapRequest
	query := `
		SELECT id, requester_id, requester_slot_id, owner_id, owner_slot_id, status, created_at, updated_at
		FROM swap_requests
		WHERE id = $1
	`
	err := tx.GetContext(ctx, &swap, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SwapRepository:GetByIDTx:Error:", err)
		return nil, err
	}
	return &swap, nil
}

// UpdateStatusTx is the PENDING-to-terminal compare-and-set. Zero rows
// affected means another response already resolved this request.
func (r *SwapRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to entity.SwapStatus) (int64, error) {
	query := `
		UPDATE swap_requests
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`
	result, err := tx.ExecContext(ctx, query, to, id, from)
	if err != nil {
		logger.Error("SwapRepository:UpdateStatusTx:Error:", err)
		return 0, err
	}
	return result.RowsAffected()
}

const detailColumns = `
	sr.id, sr.requester_id, sr.requester_slot_id, sr.owner_id, sr.owner_slot_id,
	sr.status, sr.created_at, sr.updated_at,
	ru.name AS requester_name, ru.handle AS requester_handle,
	ou.name AS owner_name, ou.handle AS owner_handle,
	rs.title AS requester_slot_title, rs.start_time AS requester_slot_start, rs.end_time AS requester_slot_end,
	os.title AS owner_slot_title, os.start_time AS owner_slot_start, os.end_time AS owner_slot_end
`

const detailJoins = `
	FROM swap_requests sr
	JOIN users ru ON ru.id = sr.requester_id
	JOIN users ou ON ou.id = sr.owner_id
	JOIN slots rs ON rs.id = sr.requester_slot_id
	JOIN slots os ON os.id = sr.owner_slot_id
`

func (r *SwapRepository) GetIncoming(ctx context.Context, ownerID uuid.UUID, status string, params params.QueryParams) (*entity.PaginatedSwapRequestEntity, error) {
	return r.getForUser(ctx, "sr.owner_id", ownerID, status, params)
}

func (r *SwapRepository) GetOutgoing(ctx context.Context, requesterID uuid.UUID, status string, params params.QueryParams) (*entity.PaginatedSwapRequestEntity, error) {
	return r.getForUser(ctx, "sr.requester_id", requesterID, status, params)
}

func (r *SwapRepository) getForUser(ctx context.Context, userColumn string, userID uuid.UUID, status string, params params.QueryParams) (*entity.PaginatedSwapRequestEntity, error) {
	offset := (params.PageNumber - 1) * params.PageSize

	where := ` WHERE ` + userColumn + ` = $1`
	args := []any{userID}
	if status != "" {
		where += ` AND sr.status = $2`
		args = append(args, status)
	}

	var totalItems int
	err := r.db.GetContext(ctx, &totalItems, `SELECT COUNT(*)`+detailJoins+where, args...)
	if err != nil {
		logger.Error("SwapRepository:getForUser:Count:Error:", err)
		return nil, err
	}

	limitArg := len(args) + 1
	query := `SELECT ` + detailColumns + detailJoins + where + `
		ORDER BY sr.created_at DESC
		LIMIT $` + strconv.Itoa(limitArg) + ` OFFSET $` + strconv.Itoa(limitArg+1)
	args = append(args, params.PageSize, offset)

	var swaps []entity.SwapRequestDetail
	err = r.db.SelectContext(ctx, &swaps, query, args...)
	if err != nil {
		logger.Error("SwapRepository:getForUser:Select:Error:", err)
		return nil, err
	}

	return &entity.PaginatedSwapRequestEntity{
		Items:      swaps,
		TotalItems: totalItems,
		PageNumber: params.PageNumber,
		PageSize:   params.PageSize,
	}, nil
}

func (r *SwapRepository) ListExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]entity.SwapRequest, error) {
	query := `
		SELECT id, requester_id, requester_slot_id, owner_id, owner_slot_id, status, created_at, updated_at
		FROM swap_requests
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`
	var swaps []entity.SwapRequest
	err := r.db.SelectContext(ctx, &swaps, query, entity.StatusPending, olderThan, limit)
	if err != nil {
		logger.Error("SwapRepository:ListExpiredPending:Error:", err)
		return nil, err
	}
	return swaps, nil
}
