package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carrental/internal/domain"
	"carrental/internal/service"
)

// VehicleHandler handles HTTP requests for the fleet.
type VehicleHandler struct {
	vehicleService      *service.VehicleService
	availabilityService *service.AvailabilityService
	pricingService      *service.PricingService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(
	vehicleService *service.VehicleService,
	availabilityService *service.AvailabilityService,
	pricingService *service.PricingService,
) *VehicleHandler {
	return &VehicleHandler{
		vehicleService:      vehicleService,
		availabilityService: availabilityService,
		pricingService:      pricingService,
	}
}

// CreateVehicleRequest is the HTTP request body for registering a vehicle.
type CreateVehicleRequest struct {
	PlateNumber string `json:"plate_number" binding:"required,max=20"`
	Brand       string `json:"brand" binding:"required"`
	Model       string `json:"model" binding:"required"`
	Seats       int    `json:"seats" binding:"required,min=1,max=60"`
	Variant     string `json:"variant"`
	StationID   string `json:"station_id,omitempty"`
}

// UpdateVehicleRequest is the HTTP request body for a partial vehicle update.
type UpdateVehicleRequest struct {
	PlateNumber *string `json:"plate_number" binding:"omitempty,min=1,max=20"`
	Brand       *string `json:"brand" binding:"omitempty,min=1"`
	Model       *string `json:"model" binding:"omitempty,min=1"`
	Seats       *int    `json:"seats" binding:"omitempty,min=1,max=60"`
	Variant     *string `json:"variant"`
	Status      *string `json:"status" binding:"omitempty,oneof=AVAILABLE MAINTENANCE"`
}

// AssignStationRequest is the HTTP request body for parking a vehicle.
type AssignStationRequest struct {
	StationID string `json:"station_id"` // Empty detaches the vehicle
}

// ListVehiclesQuery holds the vehicle listing filters.
type ListVehiclesQuery struct {
	Status    string `form:"status" binding:"omitempty,oneof=AVAILABLE RENTAL MAINTENANCE"`
	StationID string `form:"station_id"`
	Seats     int    `form:"seats" binding:"omitempty,min=1"`
}

// WindowQuery holds a rental window.
type WindowQuery struct {
	From      time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To        time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	StationID string    `form:"station_id"`
	Seats     int       `form:"seats" binding:"omitempty,min=1"`
}

// VehicleResponse is the HTTP representation of a vehicle.
type VehicleResponse struct {
	ID          string `json:"id"`
	PlateNumber string `json:"plate_number"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Seats       int    `json:"seats"`
	Variant     string `json:"variant,omitempty"`
	Status      string `json:"status"`
	StationID   string `json:"station_id,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// AvailabilityResponse answers an availability check.
type AvailabilityResponse struct {
	VehicleID string                `json:"vehicle_id"`
	From      string                `json:"from"`
	To        string                `json:"to"`
	Available bool                  `json:"available"`
	Conflicts []OrderDetailResponse `json:"conflicts,omitempty"`
}

// QuoteResponse is the price of renting a vehicle.
type QuoteResponse struct {
	VehicleID  string  `json:"vehicle_id"`
	RuleID     string  `json:"rule_id"`
	Subtotal   float64 `json:"subtotal"`
	Discount   float64 `json:"discount"`
	CouponCode string  `json:"coupon_code,omitempty"`
	Total      float64 `json:"total"`
}

// CreateVehicle handles POST /v1/vehicles
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if !bindJSON(c, &req) {
		return
	}

	vehicle, err := h.vehicleService.CreateVehicle(c.Request.Context(), service.CreateVehicleRequest{
		PlateNumber: req.PlateNumber,
		Brand:       req.Brand,
		Model:       req.Model,
		Seats:       req.Seats,
		Variant:     req.Variant,
		StationID:   req.StationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toVehicleResponse(vehicle))
}

// GetVehicle handles GET /v1/vehicles/:id
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleService.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// ListVehicles handles GET /v1/vehicles
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	var q ListVehiclesQuery
	if !bindQuery(c, &q) {
		return
	}

	vehicles, err := h.vehicleService.ListVehicles(c.Request.Context(), domain.VehicleFilter{
		Status:    domain.VehicleStatus(q.Status),
		StationID: q.StationID,
		Seats:     q.Seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponses(vehicles))
}

// SearchAvailable handles GET /v1/vehicles/available
func (h *VehicleHandler) SearchAvailable(c *gin.Context) {
	var q WindowQuery
	if !bindQuery(c, &q) {
		return
	}

	vehicles, err := h.vehicleService.SearchAvailable(c.Request.Context(), q.From, q.To, domain.VehicleFilter{
		StationID: q.StationID,
		Seats:     q.Seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponses(vehicles))
}

// CheckAvailability handles GET /v1/vehicles/:id/availability
func (h *VehicleHandler) CheckAvailability(c *gin.Context) {
	var q WindowQuery
	if !bindQuery(c, &q) {
		return
	}

	vehicleID := c.Param("id")
	conflicts, err := h.availabilityService.Conflicts(c.Request.Context(), vehicleID, q.From, q.To)
	if err != nil {
		respondError(c, err)
		return
	}

	response := AvailabilityResponse{
		VehicleID: vehicleID,
		From:      formatTime(q.From),
		To:        formatTime(q.To),
		Available: len(conflicts) == 0,
	}
	for _, d := range conflicts {
		response.Conflicts = append(response.Conflicts, OrderDetailResponse{
			ID:        d.ID,
			VehicleID: d.VehicleID,
			Type:      string(d.Type),
			StartTime: formatTime(d.StartTime),
			EndTime:   formatTime(d.EndTime),
			Status:    string(d.Status),
		})
	}
	respondJSON(c, http.StatusOK, response)
}

// GetQuote handles GET /v1/vehicles/:id/quote
func (h *VehicleHandler) GetQuote(c *gin.Context) {
	vehicleID := c.Param("id")
	quote, err := h.pricingService.QuoteVehicle(c.Request.Context(), vehicleID, c.Query("coupon"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{
		VehicleID:  vehicleID,
		RuleID:     quote.Rule.ID,
		Subtotal:   quote.Subtotal,
		Discount:   quote.Discount(),
		CouponCode: quote.CouponCode,
		Total:      quote.Total,
	})
}

// UpdateVehicle handles PATCH /v1/vehicles/:id
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	var req UpdateVehicleRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := domain.VehiclePatch{
		PlateNumber: req.PlateNumber,
		Brand:       req.Brand,
		Model:       req.Model,
		Seats:       req.Seats,
		Variant:     req.Variant,
	}
	if req.Status != nil {
		status := domain.VehicleStatus(*req.Status)
		patch.Status = &status
	}

	vehicle, err := h.vehicleService.UpdateVehicle(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// AssignStation handles PUT /v1/vehicles/:id/station
func (h *VehicleHandler) AssignStation(c *gin.Context) {
	var req AssignStationRequest
	if !bindJSON(c, &req) {
		return
	}

	vehicle, err := h.vehicleService.AssignStation(c.Request.Context(), c.Param("id"), req.StationID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toVehicleResponse(vehicle))
}

// DeleteVehicle handles DELETE /v1/vehicles/:id
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	if err := h.vehicleService.DeleteVehicle(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:          v.ID,
		PlateNumber: v.PlateNumber,
		Brand:       v.Brand,
		Model:       v.Model,
		Seats:       v.Seats,
		Variant:     v.Variant,
		Status:      string(v.Status),
		StationID:   v.StationID,
		CreatedAt:   formatTime(v.CreatedAt),
		UpdatedAt:   formatTime(v.UpdatedAt),
	}
}

func toVehicleResponses(vehicles []*domain.Vehicle) []VehicleResponse {
	response := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		response = append(response, toVehicleResponse(v))
	}
	return response
}
