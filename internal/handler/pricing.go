package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carrental/internal/domain"
	"carrental/internal/service"
)

// PricingHandler handles HTTP requests for pricing rules.
type PricingHandler struct {
	pricingService *service.PricingService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(pricingService *service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// CreatePricingRuleRequest is the HTTP request body for adding a rule.
// Either vehicle_id or seats must be set.
type CreatePricingRuleRequest struct {
	VehicleID      string   `json:"vehicle_id"`
	Seats          int      `json:"seats" binding:"gte=0"`
	Variant        string   `json:"variant"`
	BaseHours      int      `json:"base_hours" binding:"gte=0"`
	BaseHoursPrice *float64 `json:"base_hours_price" binding:"omitempty,gte=0"`
	ExtraHourPrice *float64 `json:"extra_hour_price" binding:"omitempty,gte=0"`
	DailyPrice     *float64 `json:"daily_price" binding:"omitempty,gte=0"`
}

// UpdatePricingRuleRequest is the HTTP request body for a partial rule update.
type UpdatePricingRuleRequest struct {
	BaseHours      *int     `json:"base_hours" binding:"omitempty,gte=0"`
	BaseHoursPrice *float64 `json:"base_hours_price" binding:"omitempty,gte=0"`
	ExtraHourPrice *float64 `json:"extra_hour_price" binding:"omitempty,gte=0"`
	DailyPrice     *float64 `json:"daily_price" binding:"omitempty,gte=0"`
}

// PricingRuleResponse is the HTTP representation of a rule.
type PricingRuleResponse struct {
	ID             string   `json:"id"`
	VehicleID      string   `json:"vehicle_id,omitempty"`
	Seats          int      `json:"seats,omitempty"`
	Variant        string   `json:"variant,omitempty"`
	BaseHours      int      `json:"base_hours"`
	BaseHoursPrice *float64 `json:"base_hours_price"`
	ExtraHourPrice *float64 `json:"extra_hour_price"`
	DailyPrice     *float64 `json:"daily_price"`
	TotalPrice     float64  `json:"total_price"`
	UpdatedAt      string   `json:"updated_at"`
}

// CreateRule handles POST /v1/pricing-rules
func (h *PricingHandler) CreateRule(c *gin.Context) {
	var req CreatePricingRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.pricingService.CreateRule(c.Request.Context(), service.CreatePricingRuleRequest{
		VehicleID:      req.VehicleID,
		Seats:          req.Seats,
		Variant:        req.Variant,
		BaseHours:      req.BaseHours,
		BaseHoursPrice: req.BaseHoursPrice,
		ExtraHourPrice: req.ExtraHourPrice,
		DailyPrice:     req.DailyPrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toPricingRuleResponse(rule))
}

// GetRule handles GET /v1/pricing-rules/:id
func (h *PricingHandler) GetRule(c *gin.Context) {
	rule, err := h.pricingService.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPricingRuleResponse(rule))
}

// ListRules handles GET /v1/pricing-rules
func (h *PricingHandler) ListRules(c *gin.Context) {
	rules, err := h.pricingService.ListRules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PricingRuleResponse, 0, len(rules))
	for _, r := range rules {
		response = append(response, toPricingRuleResponse(r))
	}
	respondJSON(c, http.StatusOK, response)
}

// UpdateRule handles PATCH /v1/pricing-rules/:id
func (h *PricingHandler) UpdateRule(c *gin.Context) {
	var req UpdatePricingRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.pricingService.UpdateRule(c.Request.Context(), c.Param("id"), domain.PricingRulePatch{
		BaseHours:      req.BaseHours,
		BaseHoursPrice: req.BaseHoursPrice,
		ExtraHourPrice: req.ExtraHourPrice,
		DailyPrice:     req.DailyPrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPricingRuleResponse(rule))
}

// DeleteRule handles DELETE /v1/pricing-rules/:id
func (h *PricingHandler) DeleteRule(c *gin.Context) {
	if err := h.pricingService.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toPricingRuleResponse(r *domain.PricingRule) PricingRuleResponse {
	return PricingRuleResponse{
		ID:             r.ID,
		VehicleID:      r.VehicleID,
		Seats:          r.Seats,
		Variant:        r.Variant,
		BaseHours:      r.BaseHours,
		BaseHoursPrice: r.BaseHoursPrice,
		ExtraHourPrice: r.ExtraHourPrice,
		DailyPrice:     r.DailyPrice,
		TotalPrice:     domain.ComputeTotalPrice(r),
		UpdatedAt:      formatTime(r.UpdatedAt),
	}
}
