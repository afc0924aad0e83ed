package tests

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"carrental/internal/domain"
	"carrental/internal/events"
	"carrental/internal/gateway/vnpay"
	"carrental/internal/mail"
	"carrental/internal/redis"
	"carrental/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateCallCount int32

	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockUserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.EmailVerified = true
	return nil
}

// GetUser returns the stored user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle

	// Counters for verification
	ForUpdateCallCount    int32
	UpdateStatusCallCount int32

	// Error injection
	UpdateStatusError error
	DeleteError       error
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{vehicles: make(map[string]*domain.Vehicle)}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if v.PlateNumber == vehicle.PlateNumber {
			return repository.ErrDuplicate
		}
	}
	// Status and station are owned by their own writes.
	stored := m.vehicles[vehicle.ID]
	copy := *vehicle
	copy.Status = stored.Status
	copy.StationID = stored.StationID
	m.vehicles[vehicle.ID] = &copy
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error) {
	atomic.AddInt32(&m.ForUpdateCallCount, 1)
	return m.GetByID(ctx, id)
}

func (m *MockVehicleRepository) List(ctx context.Context, filter domain.VehicleFilter) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.StationID != "" && v.StationID != filter.StationID {
			continue
		}
		if filter.Seats != 0 && v.Seats != filter.Seats {
			continue
		}
		copy := *v
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[vehicle.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, v := range m.vehicles {
		if v.ID != vehicle.ID && v.PlateNumber == vehicle.PlateNumber {
			return repository.ErrDuplicate
		}
	}
	copy := *vehicle
	m.vehicles[vehicle.ID] = &copy
	return nil
}

func (m *MockVehicleRepository) UpdateStatus(ctx context.Context, id string, status domain.VehicleStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	vehicle.Status = status
	return nil
}

func (m *MockVehicleRepository) UpdateStatusIf(ctx context.Context, id string, from, to domain.VehicleStatus) (bool, error) {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return false, m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if vehicle.Status != from {
		return false, nil
	}
	vehicle.Status = to
	return true, nil
}

func (m *MockVehicleRepository) AssignStation(ctx context.Context, id, stationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	vehicle.StationID = stationID
	return nil
}

func (m *MockVehicleRepository) CountByStation(ctx context.Context, stationID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, v := range m.vehicles {
		if v.StationID == stationID {
			count++
		}
	}
	return count, nil
}

func (m *MockVehicleRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.vehicles, id)
	return nil
}

// Status returns the stored status of a vehicle for test assertions.
func (m *MockVehicleRepository) Status(id string) domain.VehicleStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vehicles[id]; ok {
		return v.Status
	}
	return ""
}

// ──────────────────────────────────────────────
// MOCK STATION REPOSITORY
// ──────────────────────────────────────────────

// MockStationRepository is a mock implementation of StationRepository.
type MockStationRepository struct {
	mu       sync.RWMutex
	stations map[string]*domain.Station
}

// NewMockStationRepository creates a new mock station repository.
func NewMockStationRepository() *MockStationRepository {
	return &MockStationRepository{stations: make(map[string]*domain.Station)}
}

// AddStation adds a station to the mock repository.
func (m *MockStationRepository) AddStation(station *domain.Station) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stations[station.ID] = station
}

func (m *MockStationRepository) Create(ctx context.Context, station *domain.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *station
	m.stations[station.ID] = &copy
	return nil
}

func (m *MockStationRepository) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	station, ok := m.stations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *station
	return &copy, nil
}

func (m *MockStationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Station, 0, len(m.stations))
	for _, s := range m.stations {
		copy := *s
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *MockStationRepository) Update(ctx context.Context, station *domain.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stations[station.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *station
	m.stations[station.ID] = &copy
	return nil
}

func (m *MockStationRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.stations, id)
	return nil
}

// ──────────────────────────────────────────────
// MOCK PRICING RULE REPOSITORY
// ──────────────────────────────────────────────

// MockPricingRuleRepository is a mock implementation of PricingRuleRepository.
type MockPricingRuleRepository struct {
	mu    sync.RWMutex
	rules map[string]*domain.PricingRule

	GetByVehicleIDCallCount int32
}

// NewMockPricingRuleRepository creates a new mock pricing rule repository.
func NewMockPricingRuleRepository() *MockPricingRuleRepository {
	return &MockPricingRuleRepository{rules: make(map[string]*domain.PricingRule)}
}

// AddRule adds a rule to the mock repository.
func (m *MockPricingRuleRepository) AddRule(rule *domain.PricingRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = rule
}

func (m *MockPricingRuleRepository) Create(ctx context.Context, rule *domain.PricingRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if rule.VehicleID != "" && r.VehicleID == rule.VehicleID {
			return repository.ErrDuplicate
		}
		if rule.VehicleID == "" && r.VehicleID == "" && r.Seats == rule.Seats && r.Variant == rule.Variant {
			return repository.ErrDuplicate
		}
	}
	copy := *rule
	m.rules[rule.ID] = &copy
	return nil
}

func (m *MockPricingRuleRepository) GetByID(ctx context.Context, id string) (*domain.PricingRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rule, ok := m.rules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *rule
	return &copy, nil
}

func (m *MockPricingRuleRepository) GetByVehicleID(ctx context.Context, vehicleID string) (*domain.PricingRule, error) {
	atomic.AddInt32(&m.GetByVehicleIDCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.VehicleID == vehicleID {
			copy := *r
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPricingRuleRepository) GetByClass(ctx context.Context, seats int, variant string) (*domain.PricingRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.VehicleID == "" && r.Seats == seats && r.Variant == variant {
			copy := *r
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPricingRuleRepository) GetAll(ctx context.Context) ([]*domain.PricingRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.PricingRule, 0, len(m.rules))
	for _, r := range m.rules {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockPricingRuleRepository) Update(ctx context.Context, rule *domain.PricingRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[rule.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *rule
	m.rules[rule.ID] = &copy
	return nil
}

func (m *MockPricingRuleRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

// ──────────────────────────────────────────────
// MOCK COUPON REPOSITORY
// ──────────────────────────────────────────────

// MockCouponRepository is a mock implementation of CouponRepository.
type MockCouponRepository struct {
	mu      sync.RWMutex
	coupons map[string]*domain.Coupon
}

// NewMockCouponRepository creates a new mock coupon repository.
func NewMockCouponRepository() *MockCouponRepository {
	return &MockCouponRepository{coupons: make(map[string]*domain.Coupon)}
}

// AddCoupon adds a coupon to the mock repository.
func (m *MockCouponRepository) AddCoupon(coupon *domain.Coupon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coupons[coupon.Code] = coupon
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coupon, ok := m.coupons[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *coupon
	return &copy, nil
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coupon, ok := m.coupons[code]
	if !ok {
		return repository.ErrNotFound
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return repository.ErrStaleState
	}
	coupon.UsedCount++
	return nil
}

// UsedCount returns how often a coupon was redeemed.
func (m *MockCouponRepository) UsedCount(code string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.coupons[code]; ok {
		return c.UsedCount
	}
	return 0
}

// ──────────────────────────────────────────────
// MOCK ORDER REPOSITORY
// ──────────────────────────────────────────────

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.RentalOrder

	// Counters for verification
	CreateCallCount     int32
	TransitionCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	// OnDelete mirrors the foreign key cascade onto dependent mocks.
	OnDelete func(orderID string)
	// TransitionErrorOnce fails the next TransitionStatus into that status.
	TransitionErrorOnce map[domain.OrderStatus]error
}

// NewMockOrderRepository creates a new mock order repository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{orders: make(map[string]*domain.RentalOrder)}
}

// AddOrder adds an order to the mock repository.
func (m *MockOrderRepository) AddOrder(order *domain.RentalOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.RentalOrder) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.RentalOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *order
	return &copy, nil
}

func (m *MockOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.RentalOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.RentalOrder, 0, len(m.orders))
	for _, o := range m.orders {
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		if filter.VehicleID != "" && o.VehicleID != filter.VehicleID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		copy := *o
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.RentalOrder) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *order
	m.orders[order.ID] = &copy
	return nil
}

func (m *MockOrderRepository) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.TransitionErrorOnce[to]; ok {
		delete(m.TransitionErrorOnce, to)
		return false, err
	}
	// Matches the SQL CAS: a missing row is simply not moved.
	order, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	if order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = at
	return true, nil
}

func (m *MockOrderRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.RentalOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.RentalOrder
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusPending && o.CreatedAt.Before(cutoff) {
			copy := *o
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.orders, id)
	if m.OnDelete != nil {
		m.OnDelete(id)
	}
	return nil
}

// GetOrder returns the stored order for test assertions.
func (m *MockOrderRepository) GetOrder(id string) *domain.RentalOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders[id]
}

// CountOrders returns the number of stored orders.
func (m *MockOrderRepository) CountOrders() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

// ──────────────────────────────────────────────
// MOCK ORDER DETAIL REPOSITORY
// ──────────────────────────────────────────────

// MockOrderDetailRepository is a mock implementation of OrderDetailRepository.
// FindOverlapping uses the same half-open window rule as the database.
type MockOrderDetailRepository struct {
	mu      sync.RWMutex
	details map[string]*domain.RentalOrderDetail

	CreateError error
}

// NewMockOrderDetailRepository creates a new mock order detail repository.
func NewMockOrderDetailRepository() *MockOrderDetailRepository {
	return &MockOrderDetailRepository{details: make(map[string]*domain.RentalOrderDetail)}
}

// DropOrder removes every detail of an order.
func (m *MockOrderDetailRepository) DropOrder(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.details {
		if d.OrderID == orderID {
			delete(m.details, id)
		}
	}
}

// AddDetail adds a detail to the mock repository.
func (m *MockOrderDetailRepository) AddDetail(detail *domain.RentalOrderDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[detail.ID] = detail
}

func (m *MockOrderDetailRepository) Create(ctx context.Context, detail *domain.RentalOrderDetail) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *detail
	m.details[detail.ID] = &copy
	return nil
}

func (m *MockOrderDetailRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.RentalOrderDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.RentalOrderDetail
	for _, d := range m.details {
		if d.OrderID == orderID {
			copy := *d
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *MockOrderDetailRepository) GetRentalDetail(ctx context.Context, orderID string) (*domain.RentalOrderDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.details {
		if d.OrderID == orderID && d.Type == domain.DetailTypeRental {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockOrderDetailRepository) FindOverlapping(ctx context.Context, vehicleID string, from, to time.Time, excludeOrderID string) ([]*domain.RentalOrderDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.RentalOrderDetail
	for _, d := range m.details {
		if d.VehicleID != vehicleID || d.Type != domain.DetailTypeRental || !d.Status.Holds() {
			continue
		}
		if excludeOrderID != "" && d.OrderID == excludeOrderID {
			continue
		}
		if d.Overlaps(from, to) {
			copy := *d
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockOrderDetailRepository) CountHolding(ctx context.Context, vehicleID, excludeOrderID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, d := range m.details {
		if d.VehicleID == vehicleID && d.Type == domain.DetailTypeRental && d.Status.Holds() && d.OrderID != excludeOrderID {
			count++
		}
	}
	return count, nil
}

func (m *MockOrderDetailRepository) UpdateStatus(ctx context.Context, id string, status domain.DetailStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.details[id]
	if !ok {
		return repository.ErrNotFound
	}
	detail.Status = status
	return nil
}

func (m *MockOrderDetailRepository) Reassign(ctx context.Context, id, vehicleID string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.details[id]
	if !ok {
		return repository.ErrNotFound
	}
	detail.VehicleID = vehicleID
	detail.Price = price
	return nil
}

// RentalDetail returns the stored RENTAL detail of an order for test assertions.
func (m *MockOrderDetailRepository) RentalDetail(orderID string) *domain.RentalOrderDetail {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.details {
		if d.OrderID == orderID && d.Type == domain.DetailTypeRental {
			return d
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK INCIDENT REPOSITORY
// ──────────────────────────────────────────────

// MockIncidentRepository is a mock implementation of IncidentRepository.
type MockIncidentRepository struct {
	mu        sync.RWMutex
	incidents map[string]*domain.Incident
}

// NewMockIncidentRepository creates a new mock incident repository.
func NewMockIncidentRepository() *MockIncidentRepository {
	return &MockIncidentRepository{incidents: make(map[string]*domain.Incident)}
}

// AddIncident adds an incident to the mock repository.
func (m *MockIncidentRepository) AddIncident(incident *domain.Incident) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incidents[incident.ID] = incident
}

func (m *MockIncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *incident
	m.incidents[incident.ID] = &copy
	return nil
}

func (m *MockIncidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	incident, ok := m.incidents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *incident
	return &copy, nil
}

func (m *MockIncidentRepository) List(ctx context.Context, filter domain.IncidentFilter) ([]*domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Incident
	for _, i := range m.incidents {
		if filter.VehicleID != "" && i.VehicleID != filter.VehicleID {
			continue
		}
		if filter.Status != "" && i.Status != filter.Status {
			continue
		}
		copy := *i
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockIncidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.incidents[incident.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *incident
	m.incidents[incident.ID] = &copy
	return nil
}

func (m *MockIncidentRepository) CountOpenByVehicle(ctx context.Context, vehicleID, excludeID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, i := range m.incidents {
		if i.VehicleID == vehicleID && i.ID != excludeID && i.Status != domain.IncidentStatusResolved {
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CompleteCallCount int32
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByTxnRef(ctx context.Context, txnRef string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.TxnRef == txnRef {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			copy := *p
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockPaymentRepository) Complete(ctx context.Context, payment *domain.Payment) (bool, error) {
	atomic.AddInt32(&m.CompleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[payment.ID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if stored.Status != domain.PaymentStatusPending {
		return false, nil
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	return true, nil
}

// Only returns the single stored payment, or nil.
func (m *MockPaymentRepository) Only() *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		return p
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK ANALYTICS REPOSITORY
// ──────────────────────────────────────────────

// MockAnalyticsRepository returns canned aggregates.
type MockAnalyticsRepository struct {
	RevenueValue   float64
	Orders         map[domain.OrderStatus]int
	Fleet          map[domain.VehicleStatus]int
	Top            []domain.VehicleRevenue
	OpenIncidentsN int

	CallCount int32
}

func (m *MockAnalyticsRepository) Revenue(ctx context.Context, from, to time.Time) (float64, error) {
	atomic.AddInt32(&m.CallCount, 1)
	return m.RevenueValue, nil
}

func (m *MockAnalyticsRepository) OrdersByStatus(ctx context.Context, from, to time.Time) (map[domain.OrderStatus]int, error) {
	return m.Orders, nil
}

func (m *MockAnalyticsRepository) FleetByStatus(ctx context.Context) (map[domain.VehicleStatus]int, error) {
	return m.Fleet, nil
}

func (m *MockAnalyticsRepository) TopVehicles(ctx context.Context, from, to time.Time, limit int) ([]domain.VehicleRevenue, error) {
	if len(m.Top) > limit {
		return m.Top[:limit], nil
	}
	return m.Top, nil
}

func (m *MockAnalyticsRepository) OpenIncidents(ctx context.Context) (int, error) {
	return m.OpenIncidentsN, nil
}

// ──────────────────────────────────────────────
// MOCK TX MANAGER
// ──────────────────────────────────────────────

// MockTxManager hands fn the mock repositories. Nothing is rolled back, so
// tests assert on state only for paths that either fully succeed or fail
// before the first write.
type MockTxManager struct {
	Repos repository.Repositories

	CallCount int32
	BeginErr  error
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	atomic.AddInt32(&m.CallCount, 1)
	if m.BeginErr != nil {
		return m.BeginErr
	}
	return fn(m.Repos)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]string

	AcquireCallCount int32
	ReleaseCallCount int32

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]string)}
}

func (m *MockLockStore) AcquireVehicleLock(ctx context.Context, vehicleID, owner string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[vehicleID]; held {
		return false, nil
	}
	m.locks[vehicleID] = owner
	return true, nil
}

func (m *MockLockStore) ReleaseVehicleLock(ctx context.Context, vehicleID, owner string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[vehicleID] == owner {
		delete(m.locks, vehicleID)
	}
	return nil
}

// Hold marks vehicleID as locked by someone else.
func (m *MockLockStore) Hold(vehicleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[vehicleID] = "other"
}

// IsLocked reports whether vehicleID is currently locked.
func (m *MockLockStore) IsLocked(vehicleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.locks[vehicleID]
	return held
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory CacheStoreInterface.
type MockCacheStore struct {
	mu         sync.Mutex
	rules      map[string]*redis.CachedPricingRule
	dashboards map[string]any

	InvalidateCallCount int32
	DashboardHits       int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		rules:      make(map[string]*redis.CachedPricingRule),
		dashboards: make(map[string]any),
	}
}

func (m *MockCacheStore) GetPricingRule(ctx context.Context, vehicleID string) (*redis.CachedPricingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rules[vehicleID], nil
}

func (m *MockCacheStore) SetPricingRule(ctx context.Context, rule *redis.CachedPricingRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.VehicleID] = rule
	return nil
}

func (m *MockCacheStore) InvalidatePricingRules(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = make(map[string]*redis.CachedPricingRule)
	return nil
}

func (m *MockCacheStore) GetDashboard(ctx context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.dashboards[key]
	if !ok {
		return false, nil
	}
	atomic.AddInt32(&m.DashboardHits, 1)
	if d, ok := dst.(*domain.Dashboard); ok {
		*d = *(value.(*domain.Dashboard))
	}
	return true, nil
}

func (m *MockCacheStore) SetDashboard(ctx context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboards[key] = value
	return nil
}

// CachedRuleCount returns how many vehicle rules are cached.
func (m *MockCacheStore) CachedRuleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rules)
}

// ──────────────────────────────────────────────
// MOCK OTP STORE
// ──────────────────────────────────────────────

// MockOTPStore is an in-memory OTPStoreInterface. TTLs are recorded, not enforced.
type MockOTPStore struct {
	mu        sync.Mutex
	codes     map[string]string
	attempts  map[string]int
	cooldowns map[string]bool

	LastTTL time.Duration
}

// NewMockOTPStore creates a new mock OTP store.
func NewMockOTPStore() *MockOTPStore {
	return &MockOTPStore{
		codes:     make(map[string]string),
		attempts:  make(map[string]int),
		cooldowns: make(map[string]bool),
	}
}

func (m *MockOTPStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	m.attempts[email] = 0
	m.LastTTL = ttl
	return nil
}

func (m *MockOTPStore) Get(ctx context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[email]
	if !ok {
		return "", redis.ErrOTPNotFound
	}
	return code, nil
}

func (m *MockOTPStore) IncrementAttempts(ctx context.Context, email string, ttl time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[email]++
	return m.attempts[email], nil
}

func (m *MockOTPStore) Delete(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, email)
	delete(m.attempts, email)
	return nil
}

func (m *MockOTPStore) StartCooldown(ctx context.Context, email string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cooldowns[email] {
		return false, nil
	}
	m.cooldowns[email] = true
	return true, nil
}

// ClearCooldown lets the next code for email be issued immediately.
func (m *MockOTPStore) ClearCooldown(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cooldowns, email)
}

// Code returns the stored code for email.
func (m *MockOTPStore) Code(email string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[email]
	return code, ok
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]redis.StationLocation

	// Nearby is returned by FindNearbyStations when set.
	Nearby []redis.StationLocation
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{locations: make(map[string]redis.StationLocation)}
}

func (m *MockLocationStore) UpsertStation(ctx context.Context, stationID string, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[stationID] = redis.StationLocation{StationID: stationID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockLocationStore) FindNearbyStations(ctx context.Context, lat, lng, radiusKm float64) ([]redis.StationLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Nearby, nil
}

func (m *MockLocationStore) RemoveStation(ctx context.Context, stationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, stationID)
	return nil
}

// HasStation reports whether stationID is indexed.
func (m *MockLocationStore) HasStation(stationID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.locations[stationID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER / MAILER
// ──────────────────────────────────────────────

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Types returns the types of the published events in order.
func (m *MockPublisher) Types() []events.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]events.Type, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}

// Count returns how many events of type t were published.
func (m *MockPublisher) Count(t events.Type) int {
	count := 0
	for _, got := range m.Types() {
		if got == t {
			count++
		}
	}
	return count
}

// MockMailer records sent messages.
type MockMailer struct {
	mu       sync.Mutex
	messages []mail.Message

	SendError error
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	if m.SendError != nil {
		return m.SendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Last returns the most recent message.
func (m *MockMailer) Last() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return mail.Message{}, false
	}
	return m.messages[len(m.messages)-1], true
}

// ──────────────────────────────────────────────
// MOCK GATEWAY / TOKENS / CLOCK
// ──────────────────────────────────────────────

// MockGateway builds fake URLs and trusts callbacks unless Reject is set.
// Callback params are read as vnp_TxnRef, vnp_Amount (already in VND) and
// vnp_ResponseCode.
type MockGateway struct {
	Reject bool
	Built  []vnpay.PaymentRequest
}

func (m *MockGateway) BuildPaymentURL(req vnpay.PaymentRequest) (string, error) {
	m.Built = append(m.Built, req)
	return "https://pay.example/checkout?ref=" + url.QueryEscape(req.TxnRef), nil
}

func (m *MockGateway) VerifyCallback(params url.Values) (*vnpay.Result, error) {
	if m.Reject {
		return nil, vnpay.ErrInvalidSignature
	}
	amount, err := strconv.ParseFloat(params.Get("vnp_Amount"), 64)
	if err != nil {
		return nil, vnpay.ErrMissingParam
	}
	return &vnpay.Result{
		TxnRef:       params.Get("vnp_TxnRef"),
		Amount:       amount,
		ResponseCode: params.Get("vnp_ResponseCode"),
		GatewayTxnNo: "GW" + strings.ToUpper(params.Get("vnp_TxnRef")),
	}, nil
}

// MockTokenIssuer issues predictable tokens.
type MockTokenIssuer struct {
	Err error
}

func (m *MockTokenIssuer) Generate(userID, email, role string) (string, string, error) {
	if m.Err != nil {
		return "", "", m.Err
	}
	return "token-" + userID, "jti-" + userID, nil
}

func (m *MockTokenIssuer) TTL() time.Duration { return time.Hour }

// FixedClock is a settable clock.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at now.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now.
func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// ErrInjected is a generic failure for error injection.
var ErrInjected = errors.New("injected failure")
