package domain

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestRentalOrderDetail_Overlaps(t *testing.T) {
	t.Parallel()

	d := &RentalOrderDetail{StartTime: t0.Add(2 * time.Hour), EndTime: t0.Add(4 * time.Hour)}

	tests := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"Before", 0, 1, false},
		{"TouchingStart", 0, 2, false},
		{"TouchingEnd", 4, 6, false},
		{"After", 5, 6, false},
		{"OverlapStart", 1, 3, true},
		{"OverlapEnd", 3, 5, true},
		{"Inside", 2, 3, true},
		{"Covering", 1, 5, true},
		{"Identical", 2, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Overlaps(t0.Add(time.Duration(tt.start)*time.Hour), t0.Add(time.Duration(tt.end)*time.Hour))
			if got != tt.want {
				t.Errorf("Overlaps([%d,%d)) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestOrderStatus_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status                       OrderStatus
		terminal, pickup, cancelable bool
	}{
		{OrderStatusPending, false, true, true},
		{OrderStatusConfirmed, false, true, true},
		{OrderStatusActive, false, false, false},
		{OrderStatusCompleted, true, false, false},
		{OrderStatusPaymentFailed, true, false, false},
		{OrderStatusCancelled, true, false, false},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		if got := tt.status.CanPickup(); got != tt.pickup {
			t.Errorf("%s.CanPickup() = %v, want %v", tt.status, got, tt.pickup)
		}
		if got := tt.status.CanCancel(); got != tt.cancelable {
			t.Errorf("%s.CanCancel() = %v, want %v", tt.status, got, tt.cancelable)
		}
	}
}

func TestDetailStatus_Holds(t *testing.T) {
	t.Parallel()

	for _, s := range []DetailStatus{DetailStatusConfirmed, DetailStatusActive} {
		if !s.Holds() {
			t.Errorf("%s should hold the window", s)
		}
	}
	for _, s := range []DetailStatus{DetailStatusPending, DetailStatusCompleted, DetailStatusCancelled} {
		if s.Holds() {
			t.Errorf("%s should not hold the window", s)
		}
	}
}

func TestCoupon_Usable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		coupon Coupon
		want   bool
	}{
		{"Active", Coupon{Active: true}, true},
		{"Inactive", Coupon{Active: false}, false},
		{"NotYetValid", Coupon{Active: true, ValidFrom: t0.Add(time.Hour)}, false},
		{"Expired", Coupon{Active: true, ValidUntil: t0}, false},
		{"InWindow", Coupon{Active: true, ValidFrom: t0.Add(-time.Hour), ValidUntil: t0.Add(time.Hour)}, true},
		{"Exhausted", Coupon{Active: true, UsageLimit: 2, UsedCount: 2}, false},
		{"Unlimited", Coupon{Active: true, UsedCount: 1000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coupon.Usable(t0); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoupon_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		coupon Coupon
		total  float64
		want   float64
	}{
		{"Percent", Coupon{DiscountPercent: 20}, 15, 12},
		{"Capped", Coupon{DiscountPercent: 50, MaxDiscount: 5}, 20, 15},
		{"UnderCap", Coupon{DiscountPercent: 10, MaxDiscount: 5}, 20, 18},
		{"Full", Coupon{DiscountPercent: 100}, 20, 0},
		{"NeverNegative", Coupon{DiscountPercent: 150}, 20, 0},
		{"Rounded", Coupon{DiscountPercent: 33}, 10, 6.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coupon.Apply(tt.total); got != tt.want {
				t.Errorf("Apply(%v) = %v, want %v", tt.total, got, tt.want)
			}
		})
	}
}

func TestPricingRulePatch_Apply(t *testing.T) {
	t.Parallel()

	base, daily := 10.0, 5.0
	rule := &PricingRule{BaseHours: 4, BaseHoursPrice: &base, DailyPrice: &daily}

	hours, extra := 6, 2.0
	PricingRulePatch{BaseHours: &hours, ExtraHourPrice: &extra}.Apply(rule)

	if rule.BaseHours != 6 {
		t.Errorf("expected base hours 6, got %d", rule.BaseHours)
	}
	if got := ComputeTotalPrice(rule); got != 17 {
		t.Errorf("expected total 17, got %v", got)
	}

	// The patch copies values rather than aliasing the caller's pointers.
	extra = 100
	if *rule.ExtraHourPrice != 2 {
		t.Errorf("expected extra hour price 2, got %v", *rule.ExtraHourPrice)
	}
}

func TestPricingRule_HasNegativeComponent(t *testing.T) {
	t.Parallel()

	neg, pos := -1.0, 1.0
	if (&PricingRule{}).HasNegativeComponent() {
		t.Error("empty rule has no negative component")
	}
	if (&PricingRule{BaseHoursPrice: &pos, DailyPrice: &pos}).HasNegativeComponent() {
		t.Error("positive rule reported negative")
	}
	if !(&PricingRule{BaseHoursPrice: &pos, ExtraHourPrice: &neg}).HasNegativeComponent() {
		t.Error("negative extra hour price not detected")
	}
}

func TestIncident_TakesVehicleOffline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ      IncidentType
		severity IncidentSeverity
		want     bool
	}{
		{IncidentTypeDamage, IncidentSeverityLow, false},
		{IncidentTypeDamage, IncidentSeverityMedium, false},
		{IncidentTypeAccident, IncidentSeverityHigh, true},
		{IncidentTypeMaintenance, IncidentSeverityLow, true},
	}

	for _, tt := range tests {
		i := &Incident{Type: tt.typ, Severity: tt.severity}
		if got := i.TakesVehicleOffline(); got != tt.want {
			t.Errorf("%s/%s: TakesVehicleOffline() = %v, want %v", tt.typ, tt.severity, got, tt.want)
		}
	}
}

func TestVehicleStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []VehicleStatus{VehicleStatusAvailable, VehicleStatusRental, VehicleStatusMaintenance} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if VehicleStatus("SOLD").Valid() {
		t.Error("SOLD should not be valid")
	}
}
