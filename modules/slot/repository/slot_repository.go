package repository

import (
	"context"
	"database/sql"

	"slotswap-api/core/database"
	"slotswap-api/core/logger"
	"slotswap-api/core/params"
	"slotswap-api/modules/slot/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SlotRepositoryInterface interface {
	Create(ctx context.Context, slot *entity.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Slot, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, params params.QueryParams) (*entity.PaginatedSlotEntity, error)
	Update(ctx context.Context, slot *entity.Slot) (int64, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, userID uuid.UUID, status entity.SlotStatus) (int64, error)
	GetMarketplace(ctx context.Context, excludeUserID uuid.UUID, params params.QueryParams) (*entity.PaginatedMarketplaceEntity, error)

	GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*entity.Slot, error)
	MarkSwapPendingTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, ownerID uuid.UUID) (int64, error)
	ResolveTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, ownerID uuid.UUID, status entity.SlotStatus) (int64, error)
}

type SlotRepository struct {
	db database.IDatabase
}

func NewSlotRepository(db database.IDatabase) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) Create(ctx context.Context, slot *entity.Slot) error {
	query := `
		INSERT INTO slots (user_id, title, start_time, end_time, status, created_at, updated_at)
		VALUES (:user_id, :title, :start_time, :end_time, :status, :created_at, :updated_at)
		RETURNING id
	`
	rows, err := r.db.NamedQueryContext(ctx, query, slot)
	if err != nil {
		logger.Error("SlotRepository:Create:Error:", err)
		return err
	}
	defer rows.Close()

	if rows.Next() {
		return rows.Scan(&slot.ID)
	}
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Slot, error) {
	var slot entity.Slot
	query := `
		SELECT id, user_id, title, start_time, end_time, status, created_at, updated_at
		FROM slots
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &slot, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SlotRepository:GetByID:Error:", err)
		return nil, err
	}
	return &slot, nil
}

func (r *SlotRepository) GetByUserID(ctx context.Context, userID uuid.UUID, params params.QueryParams) (*entity.PaginatedSlotEntity, error) {
	offset := (params.PageNumber - 1) * params.PageSize

	baseQuery := `FROM slots WHERE user_id = $1`

	var totalItems int
	err := r.db.GetContext(ctx, &totalItems, "SELECT COUNT(*) "+baseQuery, userID)
	if err != nil {
		logger.Error("SlotRepository:GetByUserID:Count:Error:", err)
		return nil, err
	}

	query := `
		SELECT id, user_id, title, start_time, end_time, status, created_at, updated_at ` + baseQuery + `
		ORDER BY start_time ASC
		LIMIT $2 OFFSET $3
	`

	var slots []entity.Slot
	err = r.db.SelectContext(ctx, &slots, query, userID, params.PageSize, offset)
	if err != nil {
		logger.Error("SlotRepository:GetByUserID:Select:Error:", err)
		return nil, err
	}

	return &entity.PaginatedSlotEntity{
		Items:      slots,
		TotalItems: totalItems,
		PageNumber: params.PageNumber,
		PageSize:   params.PageSize,
	}, nil
}

// Update writes title and times only. Status and ownership belong to the
// swap engine and the status toggle.
func (r *SlotRepository) Update(ctx context.Context, slot *entity.Slot) (int64, error) {
	query := `
		UPDATE slots
		SET title = $1, start_time = $2, end_time = $3, updated_at = now()
		WHERE id = $4 AND user_id = $5
	`
	result, err := r.db.SQLx().ExecContext(ctx, query, slot.Title, slot.StartTime, slot.EndTime, slot.ID, slot.UserID)
	if err != nil {
		logger.Error("SlotRepository:Update:Error:", err)
		return 0, err
	}
	return result.RowsAffected()
}

// Delete refuses rows that are part of a pending swap.
func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM slots
		WHERE id = $1 AND user_id = $2 AND status <> $3
	`
	result, err := r.db.SQLx().ExecContext(ctx, query, id, userID, entity.StatusSwapPending)
	if err != nil {
		logger.Error("SlotRepository:Delete:Error:", err)
		return 0, err
	}
	return result.RowsAffected()
}

// UpdateStatus toggles BUSY/SWAPPABLE. The condition keeps it from
// clobbering a slot the swap engine has marked SWAP_PENDING.
func (r *SlotRepository) UpdateStatus(ctx context.Context, id uuid.UUID, userID uuid.UUID, status entity.SlotStatus) (int64, error) {
	query := `
		UPDATE slots
		SET status = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3 AND status <> $4
	`
	result, err := r.db.SQLx().ExecContext(ctx, query, status, id, userID, entity.StatusSwapPending)
	if err != nil {
		logger.Error("SlotRepository:UpdateStatus:Error:", err)
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SlotRepository) GetMarketplace(ctx context.Context, excludeUserID uuid.UUID, params params.QueryParams) (*entity.PaginatedMarketplaceEntity, error) {
	offset := (params.PageNumber - 1) * params.PageSize

	baseQuery := `
		FROM slots s
		JOIN users u ON u.id = s.user_id
		WHERE s.status = $1 AND s.user_id <> $2
	`

	var totalItems int
	err := r.db.GetContext(ctx, &totalItems, "SELECT COUNT(*) "+baseQuery, entity.StatusSwappable, excludeUserID)
	if err != nil {
		logger.Error("SlotRepository:GetMarketplace:Count:Error:", err)
		return nil, err
	}

	query := `
		SELECT s.id, s.user_id, s.title, s.start_time, s.end_time, s.status, s.created_at, s.updated_at,
		       u.name AS owner_name, u.handle AS owner_handle ` + baseQuery + `
		ORDER BY s.start_time ASC
		LIMIT $3 OFFSET $4
	`

	var slots []entity.MarketplaceSlot
	err = r.db.SelectContext(ctx, &slots, query, entity.StatusSwappable, excludeUserID, params.PageSize, offset)
	if err != nil {
		logger.Error("SlotRepository:GetMarketplace:Select:Error:", err)
		return nil, err
	}

	return &entity.PaginatedMarketplaceEntity{
		Items:      slots,
		TotalItems: totalItems,
		PageNumber: params.PageNumber,
		PageSize:   params.PageSize,
	}, nil
}

func (r *SlotRepository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*entity.Slot, error) {
	var slot entity.Slot
	query := `
		SELECT id, user_id, title, start_time, end_time, status, created_at, updated_at
		FROM slots
		WHERE id = $1
	`
	err := tx.GetContext(ctx, &slot, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SlotRepository:GetByIDTx:Error:", err)
		return nil, err
	}
	return &slot, nil
}

// MarkSwapPendingTx is the compare-and-set used by ProposeSwap. Zero rows
// affected means a concurrent transaction already claimed the slot, or
// ownership changed since the caller read it.
func (r *SlotRepository) MarkSwapPendingTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, ownerID uuid.UUID) (int64, error) {
	query := `
		UPDATE slots
		SET status = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3 AND status = $4
	`
	result, err := tx.ExecContext(ctx, query, entity.StatusSwapPending, id, ownerID, entity.StatusSwappable)
	if err != nil {
		logger.Error("SlotRepository:MarkSwapPendingTx:Error:", err)
		return 0, err
	}
	return result.RowsAffected()
}

// ResolveTx releases a slot out of SWAP_PENDING, optionally to a new owner.
func (r *SlotRepository) ResolveTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, ownerID uuid.UUID, status entity.SlotStatus) (int64, error) {
	query := `
		UPDATE slots
		SET user_id = $1, status = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`
	result, err := tx.ExecContext(ctx, query, ownerID, status, id, entity.StatusSwapPending)
	if err != nil {
		logger.Error("SlotRepository:ResolveTx:Error:", err)
		return 0, err
	}
	return result.RowsAffected()
}
