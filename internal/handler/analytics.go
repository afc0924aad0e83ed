package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carrental/internal/service"
)

// AnalyticsHandler serves the admin dashboard.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// DashboardQuery is the reporting window. Defaults to the last 30 days.
type DashboardQuery struct {
	From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// VehicleRevenueResponse is one entry of the top vehicles list.
type VehicleRevenueResponse struct {
	VehicleID   string  `json:"vehicle_id"`
	PlateNumber string  `json:"plate_number"`
	Orders      int     `json:"orders"`
	Revenue     float64 `json:"revenue"`
}

// DashboardResponse is the HTTP representation of the dashboard.
type DashboardResponse struct {
	From            string                   `json:"from"`
	To              string                   `json:"to"`
	Revenue         float64                  `json:"revenue"`
	OrdersByStatus  map[string]int           `json:"orders_by_status"`
	FleetByStatus   map[string]int           `json:"fleet_by_status"`
	UtilizationRate float64                  `json:"utilization_rate"`
	TopVehicles     []VehicleRevenueResponse `json:"top_vehicles"`
	OpenIncidents   int                      `json:"open_incidents"`
}

// Dashboard handles GET /v1/admin/dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	var q DashboardQuery
	if !bindQuery(c, &q) {
		return
	}
	if q.To.IsZero() {
		q.To = time.Now().UTC()
	}
	if q.From.IsZero() {
		q.From = q.To.AddDate(0, 0, -30)
	}

	dashboard, err := h.analyticsService.Dashboard(c.Request.Context(), q.From, q.To)
	if err != nil {
		respondError(c, err)
		return
	}

	response := DashboardResponse{
		From:            formatTime(dashboard.From),
		To:              formatTime(dashboard.To),
		Revenue:         dashboard.Revenue,
		OrdersByStatus:  make(map[string]int, len(dashboard.OrdersByStatus)),
		FleetByStatus:   make(map[string]int, len(dashboard.FleetByStatus)),
		UtilizationRate: dashboard.UtilizationRate,
		TopVehicles:     make([]VehicleRevenueResponse, 0, len(dashboard.TopVehicles)),
		OpenIncidents:   dashboard.OpenIncidents,
	}
	for status, n := range dashboard.OrdersByStatus {
		response.OrdersByStatus[string(status)] = n
	}
	for status, n := range dashboard.FleetByStatus {
		response.FleetByStatus[string(status)] = n
	}
	for _, v := range dashboard.TopVehicles {
		response.TopVehicles = append(response.TopVehicles, VehicleRevenueResponse(v))
	}
	respondJSON(c, http.StatusOK, response)
}
