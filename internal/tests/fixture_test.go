package tests

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/repository"
	"carrental/internal/service"
)

// T0 is the fixed "now" most tests start from.
var T0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// rentalFixture wires OrderService and its collaborators to mocks.
type rentalFixture struct {
	users     *MockUserRepository
	vehicles  *MockVehicleRepository
	rules     *MockPricingRuleRepository
	coupons   *MockCouponRepository
	orders    *MockOrderRepository
	details   *MockOrderDetailRepository
	payments  *MockPaymentRepository
	incidents *MockIncidentRepository
	tx        *MockTxManager
	locks     *MockLockStore
	cache     *MockCacheStore
	publisher *MockPublisher
	mailer    *MockMailer
	clock     *FixedClock

	pricing  *service.PricingService
	notifier *service.NotificationService
	orderSvc *service.OrderService
}

func newRentalFixture(t *testing.T) *rentalFixture {
	t.Helper()

	f := &rentalFixture{
		users:     NewMockUserRepository(),
		vehicles:  NewMockVehicleRepository(),
		rules:     NewMockPricingRuleRepository(),
		coupons:   NewMockCouponRepository(),
		orders:    NewMockOrderRepository(),
		details:   NewMockOrderDetailRepository(),
		payments:  NewMockPaymentRepository(),
		incidents: NewMockIncidentRepository(),
		locks:     NewMockLockStore(),
		cache:     NewMockCacheStore(),
		publisher: &MockPublisher{},
		mailer:    &MockMailer{},
		clock:     NewFixedClock(T0),
	}
	f.orders.OnDelete = f.details.DropOrder
	f.tx = &MockTxManager{Repos: repository.Repositories{
		Vehicles:     f.vehicles,
		Orders:       f.orders,
		OrderDetails: f.details,
		Coupons:      f.coupons,
		Payments:     f.payments,
		Incidents:    f.incidents,
	}}

	logger := zap.NewNop()
	f.pricing = service.NewPricingService(f.rules, f.vehicles, f.coupons, f.cache, f.clock, logger)
	f.notifier = service.NewNotificationService(f.publisher, f.mailer, f.users, f.clock, logger)
	f.orderSvc = service.NewOrderService(service.OrderServiceDeps{
		TxManager:    f.tx,
		Orders:       f.orders,
		OrderDetails: f.details,
		Vehicles:     f.vehicles,
		Users:        f.users,
		Coupons:      f.coupons,
		Pricing:      f.pricing,
		Locks:        f.locks,
		Notifier:     f.notifier,
		Clock:        f.clock,
		Logger:       logger,
		GracePeriod:  10 * time.Minute,
	})

	f.users.AddUser(&domain.User{
		ID:            "cust-1",
		Email:         "cust1@example.com",
		FullName:      "Customer One",
		Role:          domain.RoleCustomer,
		EmailVerified: true,
	})
	f.addVehicle("veh-1", 4, "standard")
	f.rules.AddRule(&domain.PricingRule{
		ID:             "rule-4-standard",
		Seats:          4,
		Variant:        "standard",
		BaseHours:      4,
		BaseHoursPrice: ptr(10.0),
		DailyPrice:     ptr(5.0),
	})
	return f
}

func (f *rentalFixture) addVehicle(id string, seats int, variant string) *domain.Vehicle {
	v := &domain.Vehicle{
		ID:          id,
		PlateNumber: "51A-" + id,
		Brand:       "Toyota",
		Model:       "Vios",
		Seats:       seats,
		Variant:     variant,
		Status:      domain.VehicleStatusAvailable,
	}
	f.vehicles.AddVehicle(v)
	return v
}

// window returns [T0+startH, T0+endH).
func window(startH, endH int) (time.Time, time.Time) {
	return T0.Add(time.Duration(startH) * time.Hour), T0.Add(time.Duration(endH) * time.Hour)
}

func (f *rentalFixture) book(t *testing.T, vehicleID string, startH, endH int) (*domain.RentalOrder, error) {
	t.Helper()
	start, end := window(startH, endH)
	return f.orderSvc.CreateOrder(t.Context(), service.CreateOrderRequest{
		CustomerID: "cust-1",
		VehicleID:  vehicleID,
		StartTime:  start,
		EndTime:    end,
	})
}

func (f *rentalFixture) mustBook(t *testing.T, vehicleID string, startH, endH int) *domain.RentalOrder {
	t.Helper()
	order, err := f.book(t, vehicleID, startH, endH)
	if err != nil {
		t.Fatalf("booking %s [%d,%d): unexpected error: %v", vehicleID, startH, endH, err)
	}
	return order
}
