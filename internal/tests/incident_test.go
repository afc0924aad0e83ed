package tests

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"carrental/internal/domain"
	"carrental/internal/service"
)

// ──────────────────────────────────────────────
// 10. INCIDENTS
// ──────────────────────────────────────────────

func newIncidentService(f *rentalFixture) *service.IncidentService {
	return service.NewIncidentService(f.tx, f.incidents, f.vehicles, f.orders, f.clock, zap.NewNop())
}

func TestReportIncident_HighSeverityTakesVehicleOffline(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	incidents := newIncidentService(f)

	incident, err := incidents.ReportIncident(t.Context(), service.ReportIncidentRequest{
		VehicleID:   "veh-1",
		ReportedBy:  "staff-1",
		Type:        domain.IncidentTypeDamage,
		Severity:    domain.IncidentSeverityHigh,
		Description: "cracked windscreen",
		Cost:        120,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if incident.Status != domain.IncidentStatusOpen {
		t.Errorf("expected %s, got %s", domain.IncidentStatusOpen, incident.Status)
	}
	if got := f.vehicles.Status("veh-1"); got != domain.VehicleStatusMaintenance {
		t.Errorf("expected vehicle %s, got %s", domain.VehicleStatusMaintenance, got)
	}

	if _, err := f.book(t, "veh-1", 2, 4); !errors.Is(err, service.ErrVehicleUnderMaintenance) {
		t.Errorf("expected booking to be refused while in maintenance, got %v", err)
	}
}

func TestReportIncident_LowSeverityKeepsVehicleAvailable(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	incidents := newIncidentService(f)

	_, err := incidents.ReportIncident(t.Context(), service.ReportIncidentRequest{
		VehicleID: "veh-1", Type: domain.IncidentTypeOther, Severity: domain.IncidentSeverityLow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.vehicles.Status("veh-1"); got != domain.VehicleStatusAvailable {
		t.Errorf("expected vehicle %s, got %s", domain.VehicleStatusAvailable, got)
	}
}

func TestReportIncident_RentedVehicleKeepsStatus(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	incidents := newIncidentService(f)
	order := f.mustBook(t, "veh-1", 2, 4)

	_, err := incidents.ReportIncident(t.Context(), service.ReportIncidentRequest{
		VehicleID: "veh-1", OrderID: order.ID, Type: domain.IncidentTypeAccident, Severity: domain.IncidentSeverityHigh,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.vehicles.Status("veh-1"); got != domain.VehicleStatusRental {
		t.Errorf("expected vehicle to stay %s, got %s", domain.VehicleStatusRental, got)
	}
}

func TestReportIncident_Validation(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	incidents := newIncidentService(f)

	tests := []struct {
		name string
		req  service.ReportIncidentRequest
		want error
	}{
		{"no vehicle", service.ReportIncidentRequest{Type: domain.IncidentTypeOther, Severity: domain.IncidentSeverityLow}, service.ErrBadRequest},
		{"unknown type", service.ReportIncidentRequest{VehicleID: "veh-1", Type: "FLOOD", Severity: domain.IncidentSeverityLow}, service.ErrInvalidIncident},
		{"negative cost", service.ReportIncidentRequest{VehicleID: "veh-1", Type: domain.IncidentTypeOther, Severity: domain.IncidentSeverityLow, Cost: -1}, service.ErrInvalidIncident},
		{"unknown vehicle", service.ReportIncidentRequest{VehicleID: "ghost", Type: domain.IncidentTypeOther, Severity: domain.IncidentSeverityLow}, service.ErrNotFound},
		{"unknown order", service.ReportIncidentRequest{VehicleID: "veh-1", OrderID: "ghost", Type: domain.IncidentTypeOther, Severity: domain.IncidentSeverityLow}, service.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := incidents.ReportIncident(t.Context(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUpdateIncident_ResolvingLastOpenIncidentFreesVehicle(t *testing.T) {
	t.Parallel()
	f := newRentalFixture(t)
	incidents := newIncidentService(f)

	report := func() *domain.Incident {
		t.Helper()
		i, err := incidents.ReportIncident(t.Context(), service.ReportIncidentRequest{
			VehicleID: "veh-1", Type: domain.IncidentTypeMaintenance, Severity: domain.IncidentSeverityMedium,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return i
	}
	first, second := report(), report()

	if _, err := incidents.UpdateIncident(t.Context(), first.ID, service.UpdateIncidentRequest{Status: domain.IncidentStatusResolved}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.vehicles.Status("veh-1"); got != domain.VehicleStatusMaintenance {
		t.Errorf("expected vehicle to stay %s while an incident is open, got %s", domain.VehicleStatusMaintenance, got)
	}

	resolved, err := incidents.UpdateIncident(t.Context(), second.ID, service.UpdateIncidentRequest{
		Status: domain.IncidentStatusResolved, Cost: ptr(80.0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.ResolvedAt.IsZero() || resolved.Cost != 80 {
		t.Errorf("expected resolved_at and cost set, got %+v", resolved)
	}
	if got := f.vehicles.Status("veh-1"); got != domain.VehicleStatusAvailable {
		t.Errorf("expected vehicle %s, got %s", domain.VehicleStatusAvailable, got)
	}

	if _, err := incidents.UpdateIncident(t.Context(), second.ID, service.UpdateIncidentRequest{Status: domain.IncidentStatusOpen}); !errors.Is(err, service.ErrInvalidIncidentTransition) {
		t.Errorf("expected reopening to be refused, got %v", err)
	}
}

// ──────────────────────────────────────────────
// 11. DASHBOARD
// ──────────────────────────────────────────────

func TestDashboard_ComputesUtilizationAndCaches(t *testing.T) {
	t.Parallel()
	repo := &MockAnalyticsRepository{
		RevenueValue: 450,
		Orders:       map[domain.OrderStatus]int{domain.OrderStatusCompleted: 3},
		Fleet: map[domain.VehicleStatus]int{
			domain.VehicleStatusAvailable:   5,
			domain.VehicleStatusRental:      2,
			domain.VehicleStatusMaintenance: 1,
		},
		Top:            []domain.VehicleRevenue{{VehicleID: "veh-1", Orders: 3, Revenue: 450}},
		OpenIncidentsN: 1,
	}
	cache := NewMockCacheStore()
	analytics := service.NewAnalyticsService(repo, cache, zap.NewNop())
	from, to := window(0, 24)

	dashboard, err := analytics.Dashboard(t.Context(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dashboard.Revenue != 450 || dashboard.OpenIncidents != 1 {
		t.Errorf("unexpected dashboard: %+v", dashboard)
	}
	if dashboard.UtilizationRate != 0.25 {
		t.Errorf("expected utilization 0.25, got %v", dashboard.UtilizationRate)
	}

	if _, err := analytics.Dashboard(t.Context(), from, to); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.CallCount != 1 {
		t.Errorf("expected second call to be served from cache, got %d repository calls", repo.CallCount)
	}
	if cache.DashboardHits != 1 {
		t.Errorf("expected one cache hit, got %d", cache.DashboardHits)
	}

	if _, err := analytics.Dashboard(t.Context(), to, from); !errors.Is(err, service.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}
