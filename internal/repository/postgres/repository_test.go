package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/domain"
	"carrental/internal/repository"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var detailColumnNames = []string{"id", "order_id", "vehicle_id", "type", "start_time", "end_time", "price", "status", "description", "created_at"}

func TestOrderDetailRepository_FindOverlapping(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderDetailRepository(db)
	ctx := context.Background()

	from := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)

	rows := sqlmock.NewRows(detailColumnNames).
		AddRow("det-1", "ord-1", "veh-1", "RENTAL", from.Add(-time.Hour), from.Add(time.Hour), 15.0, "confirmed", "", from)

	mock.ExpectQuery(regexp.QuoteMeta("AND NOT (end_time <= $4 OR start_time >= $5)")).
		WithArgs("veh-1", "RENTAL", sqlmock.AnyArg(), from, to, "").
		WillReturnRows(rows)

	details, err := repo.FindOverlapping(ctx, "veh-1", from, to, "")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "det-1", details[0].ID)
	assert.Equal(t, domain.DetailTypeRental, details[0].Type)
	assert.Equal(t, domain.DetailStatusConfirmed, details[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderDetailRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderDetailRepository(db)
	ctx := context.Background()

	detail := &domain.RentalOrderDetail{
		ID:        "det-1",
		OrderID:   "ord-1",
		VehicleID: "veh-1",
		Type:      domain.DetailTypeRental,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
		Price:     15,
		Status:    domain.DetailStatusConfirmed,
		CreatedAt: time.Now(),
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO rental_order_details").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, detail))
	})

	t.Run("ExclusionViolation", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO rental_order_details").
			WillReturnError(&pq.Error{Code: "23P01"})

		err := repo.Create(ctx, detail)
		assert.True(t, errors.Is(err, repository.ErrOverlap), "got %v", err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderDetailRepository_CountHolding(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderDetailRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rental_order_details")).
		WithArgs("veh-1", "RENTAL", sqlmock.AnyArg(), "ord-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountHolding(context.Background(), "veh-1", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOrderRepository_TransitionStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	at := time.Now()
	query := regexp.QuoteMeta("UPDATE rental_orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4")

	t.Run("Moved", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs("PAYMENT_FAILED", at, "ord-1", "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.TransitionStatus(ctx, "ord-1", domain.OrderStatusPending, domain.OrderStatusPaymentFailed, at)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("AlreadyMoved", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs("PAYMENT_FAILED", at, "ord-1", "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.TransitionStatus(ctx, "ord-1", domain.OrderStatusPending, domain.OrderStatusPaymentFailed, at)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_DeleteIsSingleStatement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	query := regexp.QuoteMeta("DELETE FROM rental_orders WHERE id = $1")

	mock.ExpectExec(query).WithArgs("ord-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "ord-1"))

	mock.ExpectExec(query).WithArgs("ord-2").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), "ord-2")
	assert.True(t, errors.Is(err, repository.ErrNotFound), "got %v", err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()
	now := time.Now()
	columns := []string{"id", "customer_id", "vehicle_id", "start_time", "end_time", "total_price", "coupon_code", "status", "planned_hours", "actual_hours", "cancel_reason", "created_at", "updated_at", "picked_up_at", "returned_at", "cancelled_at"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rental_orders WHERE id = \\$1").
			WithArgs("ord-1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("ord-1", "cust-1", "veh-1", now, now.Add(2*time.Hour), 15.0, nil, "COMPLETED", 2.0, 2.5, nil, now, now, now, now.Add(2*time.Hour), nil))

		order, err := repo.GetByID(ctx, "ord-1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCompleted, order.Status)
		assert.Empty(t, order.CouponCode)
		require.NotNil(t, order.ActualHours)
		assert.Equal(t, 2.5, *order.ActualHours)
		assert.True(t, order.CancelledAt.IsZero())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rental_orders WHERE id = \\$1").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.GetByID(ctx, "ghost")
		assert.True(t, errors.Is(err, repository.ErrNotFound), "got %v", err)
	})
}

func TestVehicleRepository_UpdateStatusIf(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVehicleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $2 AND status = $3")).
		WithArgs("AVAILABLE", "veh-1", "RENTAL").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatusIf(context.Background(), "veh-1", domain.VehicleStatusRental, domain.VehicleStatusAvailable)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVehicleRepository_DuplicatePlate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVehicleRepository(db)

	mock.ExpectExec("INSERT INTO vehicles").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &domain.Vehicle{ID: "veh-1", PlateNumber: "51A-1"})
	assert.True(t, errors.Is(err, repository.ErrDuplicate), "got %v", err)
}

func TestVehicleRepository_UpdateLeavesStatusAlone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVehicleRepository(db)

	mock.ExpectExec(`SET plate_number = \$1, brand = \$2, model = \$3, seats = \$4, variant = \$5, updated_at = NOW\(\)\s+WHERE id = \$6`).
		WithArgs("51A-1", "Kia", "Morning", 4, "standard", "veh-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &domain.Vehicle{
		ID: "veh-1", PlateNumber: "51A-1", Brand: "Kia", Model: "Morning", Seats: 4, Variant: "standard",
		Status: domain.VehicleStatusMaintenance,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleRepository_DeleteReferenced(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVehicleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM vehicles WHERE id = $1")).
		WithArgs("veh-1").
		WillReturnError(&pq.Error{Code: "23503"})

	err := repo.Delete(context.Background(), "veh-1")
	assert.True(t, errors.Is(err, repository.ErrReferenced), "got %v", err)
}

func TestCouponRepository_IncrementUsageExhausted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCouponRepository(db)

	mock.ExpectExec("UPDATE coupons SET used_count = used_count \\+ 1").
		WithArgs("SPRING20").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.IncrementUsage(context.Background(), "SPRING20")
	assert.True(t, errors.Is(err, repository.ErrStaleState), "got %v", err)
}

func TestPaymentRepository_CompleteOnlyOnce(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)

	payment := &domain.Payment{ID: "pay-1", Status: domain.PaymentStatusSuccess, ResponseCode: "00", PaidAt: time.Now()}

	mock.ExpectExec("UPDATE payments").
		WithArgs("SUCCESS", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "pay-1", "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Complete(context.Background(), payment)
	require.NoError(t, err)
	assert.False(t, ok, "a settled payment must not be overwritten")
}

func TestTxManager_WithinTx(t *testing.T) {
	t.Run("Commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		manager := NewTxManager(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE vehicles SET status").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := manager.WithinTx(context.Background(), func(repos repository.Repositories) error {
			return repos.Vehicles.UpdateStatus(context.Background(), "veh-1", domain.VehicleStatusRental)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback", func(t *testing.T) {
		db, mock := newMockDB(t)
		manager := NewTxManager(db)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := manager.WithinTx(context.Background(), func(repos repository.Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
