package service

import (
	"context"
	"testing"
	"time"

	"slotswap-api/core/database"
	"slotswap-api/core/errors"
	slotEntity "slotswap-api/modules/slot/entity"
	slotRepository "slotswap-api/modules/slot/repository"
	"slotswap-api/modules/swap/dto"
	"slotswap-api/modules/swap/entity"
	"slotswap-api/modules/swap/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceWithMock(t *testing.T) (*SwapService, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := database.NewDatabase(sqlx.NewDb(mockDB, "sqlmock"))
	svc := NewSwapService(db, repository.NewSwapRepository(db), slotRepository.NewSlotRepository(db), nil)
	return svc, mock
}

func slotColumns() []string {
	return []string{"id", "user_id", "title", "start_time", "end_time", "status", "created_at", "updated_at"}
}

func slotRow(id, userID uuid.UUID, status slotEntity.SlotStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(slotColumns()).
		AddRow(id, userID, "Slot", now, now.Add(time.Hour), status, now, now)
}

func swapColumns() []string {
	return []string{"id", "requester_id", "requester_slot_id", "owner_id", "owner_slot_id", "status", "created_at", "updated_at"}
}

func swapRow(id uuid.UUID, swap *entity.SwapRequest, status entity.SwapStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(swapColumns()).
		AddRow(id, swap.RequesterID, swap.RequesterSlotID, swap.OwnerID, swap.OwnerSlotID, status, now, now)
}

func TestProposeSwap_Success(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	requesterID := uuid.New()
	ownerID := uuid.New()
	mySlotID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	theirSlotID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	swapID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(mySlotID).
		WillReturnRows(slotRow(mySlotID, requesterID, slotEntity.StatusSwappable))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(theirSlotID).
		WillReturnRows(slotRow(theirSlotID, ownerID, slotEntity.StatusSwappable))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotEntity.StatusSwapPending, mySlotID, requesterID, slotEntity.StatusSwappable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotEntity.StatusSwapPending, theirSlotID, ownerID, slotEntity.StatusSwappable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO swap_requests").
		WithArgs(requesterID, mySlotID, ownerID, theirSlotID, entity.StatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(swapID))
	mock.ExpectCommit()

	swap, appErr := svc.ProposeSwap(context.Background(), requesterID, &dto.ProposeSwapRequest{
		MySlotID:    mySlotID,
		TheirSlotID: theirSlotID,
	})

	require.Nil(t, appErr)
	assert.Equal(t, swapID, swap.ID)
	assert.Equal(t, entity.StatusPending, swap.Status)
	assert.Equal(t, ownerID, swap.OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeSwap_ConflictWhenRaceLost(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	requesterID := uuid.New()
	ownerID := uuid.New()
	mySlotID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	theirSlotID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	// Both reads still see SWAPPABLE but a concurrent proposal commits
	// first, so the conditional update hits zero rows.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(mySlotID).
		WillReturnRows(slotRow(mySlotID, requesterID, slotEntity.StatusSwappable))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(theirSlotID).
		WillReturnRows(slotRow(theirSlotID, ownerID, slotEntity.StatusSwappable))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotEntity.StatusSwapPending, mySlotID, requesterID, slotEntity.StatusSwappable).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	swap, appErr := svc.ProposeSwap(context.Background(), requesterID, &dto.ProposeSwapRequest{
		MySlotID:    mySlotID,
		TheirSlotID: theirSlotID,
	})

	require.NotNil(t, appErr)
	assert.Nil(t, swap)
	assert.Equal(t, errors.ErrConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeSwap_FlipsSlotsInIDOrder(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	requesterID := uuid.New()
	ownerID := uuid.New()
	// The requester offers the higher id; the lower one must still be
	// flipped first so mirrored proposals cannot deadlock.
	mySlotID := uuid.MustParse("99999999-9999-9999-9999-999999999999")
	theirSlotID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	swapID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(mySlotID).
		WillReturnRows(slotRow(mySlotID, requesterID, slotEntity.StatusSwappable))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(theirSlotID).
		WillReturnRows(slotRow(theirSlotID, ownerID, slotEntity.StatusSwappable))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotEntity.StatusSwapPending, theirSlotID, ownerID, slotEntity.StatusSwappable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotEntity.StatusSwapPending, mySlotID, requesterID, slotEntity.StatusSwappable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO swap_requests").
		WithArgs(requesterID, mySlotID, ownerID, theirSlotID, entity.StatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(swapID))
	mock.ExpectCommit()

	swap, appErr := svc.ProposeSwap(context.Background(), requesterID, &dto.ProposeSwapRequest{
		MySlotID:    mySlotID,
		TheirSlotID: theirSlotID,
	})

	require.Nil(t, appErr)
	assert.Equal(t, swapID, swap.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeSwap_ConflictOnDeadlock(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	requesterID := uuid.New()
	ownerID := uuid.New()
	mySlotID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	theirSlotID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(mySlotID).
		WillReturnRows(slotRow(mySlotID, requesterID, slotEntity.StatusSwappable))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(theirSlotID).
		WillReturnRows(slotRow(theirSlotID, ownerID, slotEntity.StatusSwappable))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotEntity.StatusSwapPending, mySlotID, requesterID, slotEntity.StatusSwappable).
		WillReturnError(&pq.Error{Code: "40P01"})
	mock.ExpectRollback()

	_, appErr := svc.ProposeSwap(context.Background(), requesterID, &dto.ProposeSwapRequest{
		MySlotID:    mySlotID,
		TheirSlotID: theirSlotID,
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeSwap_ConflictWhenTargetOwnerChanged(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	requesterID := uuid.New()
	ownerID := uuid.New()
	mySlotID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	theirSlotID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	// The target slot is SWAPPABLE again but under a new owner, so the
	// owner condition on the conditional update misses.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(mySlotID).
		WillReturnRows(slotRow(mySlotID, requesterID, slotEntity.StatusSwappable))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(theirSlotID).
		WillReturnRows(slotRow(theirSlotID, ownerID, slotEntity.StatusSwappable))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotEntity.StatusSwapPending, mySlotID, requesterID, slotEntity.StatusSwappable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE slots").
		WithArgs(slotEntity.StatusSwapPending, theirSlotID, ownerID, slotEntity.StatusSwappable).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, appErr := svc.ProposeSwap(context.Background(), requesterID, &dto.ProposeSwapRequest{
		MySlotID:    mySlotID,
		TheirSlotID: theirSlotID,
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeSwap_NotFound(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	requesterID := uuid.New()
	mySlotID := uuid.New()
	theirSlotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(mySlotID).
		WillReturnRows(sqlmock.NewRows(slotColumns()))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(theirSlotID).
		WillReturnRows(sqlmock.NewRows(slotColumns()))
	mock.ExpectRollback()

	_, appErr := svc.ProposeSwap(context.Background(), requesterID, &dto.ProposeSwapRequest{
		MySlotID:    mySlotID,
		TheirSlotID: theirSlotID,
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeSwap_ForbiddenWhenNotOwner(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	requesterID := uuid.New()
	someoneElse := uuid.New()
	ownerID := uuid.New()
	mySlotID := uuid.New()
	theirSlotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(mySlotID).
		WillReturnRows(slotRow(mySlotID, someoneElse, slotEntity.StatusSwappable))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(theirSlotID).
		WillReturnRows(slotRow(theirSlotID, ownerID, slotEntity.StatusSwappable))
	mock.ExpectRollback()

	_, appErr := svc.ProposeSwap(context.Background(), requesterID, &dto.ProposeSwapRequest{
		MySlotID:    mySlotID,
		TheirSlotID: theirSlotID,
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeSwap_InvalidWhenSameOwner(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	requesterID := uuid.New()
	mySlotID := uuid.New()
	theirSlotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(mySlotID).
		WillReturnRows(slotRow(mySlotID, requesterID, slotEntity.StatusSwappable))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(theirSlotID).
		WillReturnRows(slotRow(theirSlotID, requesterID, slotEntity.StatusSwappable))
	mock.ExpectRollback()

	_, appErr := svc.ProposeSwap(context.Background(), requesterID, &dto.ProposeSwapRequest{
		MySlotID:    mySlotID,
		TheirSlotID: theirSlotID,
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeSwap_ConflictWhenNotSwappable(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	requesterID := uuid.New()
	ownerID := uuid.New()
	mySlotID := uuid.New()
	theirSlotID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(mySlotID).
		WillReturnRows(slotRow(mySlotID, requesterID, slotEntity.StatusSwappable))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(theirSlotID).
		WillReturnRows(slotRow(theirSlotID, ownerID, slotEntity.StatusBusy))
	mock.ExpectRollback()

	_, appErr := svc.ProposeSwap(context.Background(), requesterID, &dto.ProposeSwapRequest{
		MySlotID:    mySlotID,
		TheirSlotID: theirSlotID,
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondToSwap_Accept(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	swapID := uuid.New()
	swap := &entity.SwapRequest{
		RequesterID:     uuid.New(),
		RequesterSlotID: uuid.New(),
		OwnerID:         uuid.New(),
		OwnerSlotID:     uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM swap_requests").WithArgs(swapID).
		WillReturnRows(swapRow(swapID, swap, entity.StatusPending))
	mock.ExpectExec("UPDATE swap_requests").
		WithArgs(entity.StatusAccepted, swapID, entity.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(swap.RequesterSlotID).
		WillReturnRows(slotRow(swap.RequesterSlotID, swap.RequesterID, slotEntity.StatusSwapPending))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(swap.OwnerSlotID).
		WillReturnRows(slotRow(swap.OwnerSlotID, swap.OwnerID, slotEntity.StatusSwapPending))
	// Ownership crosses over and both slots go busy.
	mock.ExpectExec("UPDATE slots").
		WithArgs(swap.OwnerID, slotEntity.StatusBusy, swap.RequesterSlotID, slotEntity.StatusSwapPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE slots").
		WithArgs(swap.RequesterID, slotEntity.StatusBusy, swap.OwnerSlotID, slotEntity.StatusSwapPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, appErr := svc.RespondToSwap(context.Background(), swap.OwnerID, swapID, true)

	require.Nil(t, appErr)
	assert.Equal(t, entity.StatusAccepted, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondToSwap_Reject(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	swapID := uuid.New()
	swap := &entity.SwapRequest{
		RequesterID:     uuid.New(),
		RequesterSlotID: uuid.New(),
		OwnerID:         uuid.New(),
		OwnerSlotID:     uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM swap_requests").WithArgs(swapID).
		WillReturnRows(swapRow(swapID, swap, entity.StatusPending))
	mock.ExpectExec("UPDATE swap_requests").
		WithArgs(entity.StatusRejected, swapID, entity.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Ownership unchanged, both slots released back to swappable.
	mock.ExpectExec("UPDATE slots").
		WithArgs(swap.RequesterID, slotEntity.StatusSwappable, swap.RequesterSlotID, slotEntity.StatusSwapPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE slots").
		WithArgs(swap.OwnerID, slotEntity.StatusSwappable, swap.OwnerSlotID, slotEntity.StatusSwapPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, appErr := svc.RespondToSwap(context.Background(), swap.OwnerID, swapID, false)

	require.Nil(t, appErr)
	assert.Equal(t, entity.StatusRejected, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondToSwap_ConflictOnSecondResponse(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	swapID := uuid.New()
	swap := &entity.SwapRequest{
		RequesterID:     uuid.New(),
		RequesterSlotID: uuid.New(),
		OwnerID:         uuid.New(),
		OwnerSlotID:     uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM swap_requests").WithArgs(swapID).
		WillReturnRows(swapRow(swapID, swap, entity.StatusAccepted))
	mock.ExpectRollback()

	_, appErr := svc.RespondToSwap(context.Background(), swap.OwnerID, swapID, false)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondToSwap_ConflictWhenLedgerRaceLost(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	swapID := uuid.New()
	swap := &entity.SwapRequest{
		RequesterID:     uuid.New(),
		RequesterSlotID: uuid.New(),
		OwnerID:         uuid.New(),
		OwnerSlotID:     uuid.New(),
	}

	// The read sees PENDING but a concurrent response commits first.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM swap_requests").WithArgs(swapID).
		WillReturnRows(swapRow(swapID, swap, entity.StatusPending))
	mock.ExpectExec("UPDATE swap_requests").
		WithArgs(entity.StatusAccepted, swapID, entity.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, appErr := svc.RespondToSwap(context.Background(), swap.OwnerID, swapID, true)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondToSwap_ForbiddenWhenNotOwner(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	swapID := uuid.New()
	swap := &entity.SwapRequest{
		RequesterID:     uuid.New(),
		RequesterSlotID: uuid.New(),
		OwnerID:         uuid.New(),
		OwnerSlotID:     uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM swap_requests").WithArgs(swapID).
		WillReturnRows(swapRow(swapID, swap, entity.StatusPending))
	mock.ExpectRollback()

	// The requester cannot approve their own proposal.
	_, appErr := svc.RespondToSwap(context.Background(), swap.RequesterID, swapID, true)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondToSwap_NotFound(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	swapID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM swap_requests").WithArgs(swapID).
		WillReturnRows(sqlmock.NewRows(swapColumns()))
	mock.ExpectRollback()

	_, appErr := svc.RespondToSwap(context.Background(), uuid.New(), swapID, true)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondToSwap_NotFoundWhenSlotMissingOnAccept(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	swapID := uuid.New()
	swap := &entity.SwapRequest{
		RequesterID:     uuid.New(),
		RequesterSlotID: uuid.New(),
		OwnerID:         uuid.New(),
		OwnerSlotID:     uuid.New(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM swap_requests").WithArgs(swapID).
		WillReturnRows(swapRow(swapID, swap, entity.StatusPending))
	mock.ExpectExec("UPDATE swap_requests").
		WithArgs(entity.StatusAccepted, swapID, entity.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(swap.RequesterSlotID).
		WillReturnRows(sqlmock.NewRows(slotColumns()))
	mock.ExpectQuery("SELECT (.+) FROM slots").WithArgs(swap.OwnerSlotID).
		WillReturnRows(slotRow(swap.OwnerSlotID, swap.OwnerID, slotEntity.StatusSwapPending))
	mock.ExpectRollback()

	_, appErr := svc.RespondToSwap(context.Background(), swap.OwnerID, swapID, true)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
