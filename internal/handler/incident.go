package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carrental/internal/domain"
	"carrental/internal/middleware"
	"carrental/internal/service"
)

// IncidentHandler handles HTTP requests for vehicle incidents.
type IncidentHandler struct {
	incidentService *service.IncidentService
}

// NewIncidentHandler creates a new IncidentHandler.
func NewIncidentHandler(incidentService *service.IncidentService) *IncidentHandler {
	return &IncidentHandler{incidentService: incidentService}
}

// ReportIncidentRequest is the HTTP request body for reporting an incident.
type ReportIncidentRequest struct {
	VehicleID   string  `json:"vehicle_id" binding:"required"`
	OrderID     string  `json:"order_id"`
	Type        string  `json:"type" binding:"required,oneof=DAMAGE ACCIDENT MAINTENANCE OTHER"`
	Severity    string  `json:"severity" binding:"required,oneof=LOW MEDIUM HIGH"`
	Description string  `json:"description" binding:"required,max=2000"`
	Cost        float64 `json:"cost" binding:"gte=0"`
}

// UpdateIncidentRequest is the HTTP request body for progressing an incident.
type UpdateIncidentRequest struct {
	Status string   `json:"status" binding:"required,oneof=OPEN IN_PROGRESS RESOLVED"`
	Cost   *float64 `json:"cost" binding:"omitempty,gte=0"`
}

// ListIncidentsQuery holds the incident listing filters.
type ListIncidentsQuery struct {
	VehicleID string `form:"vehicle_id"`
	Status    string `form:"status" binding:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED"`
}

// IncidentResponse is the HTTP representation of an incident.
type IncidentResponse struct {
	ID          string  `json:"id"`
	VehicleID   string  `json:"vehicle_id"`
	OrderID     string  `json:"order_id,omitempty"`
	ReportedBy  string  `json:"reported_by"`
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Cost        float64 `json:"cost"`
	CreatedAt   string  `json:"created_at"`
	ResolvedAt  string  `json:"resolved_at,omitempty"`
}

// ReportIncident handles POST /v1/incidents
func (h *IncidentHandler) ReportIncident(c *gin.Context) {
	var req ReportIncidentRequest
	if !bindJSON(c, &req) {
		return
	}

	incident, err := h.incidentService.ReportIncident(c.Request.Context(), service.ReportIncidentRequest{
		VehicleID:   req.VehicleID,
		OrderID:     req.OrderID,
		ReportedBy:  middleware.UserID(c),
		Type:        domain.IncidentType(req.Type),
		Severity:    domain.IncidentSeverity(req.Severity),
		Description: req.Description,
		Cost:        req.Cost,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toIncidentResponse(incident))
}

// GetIncident handles GET /v1/incidents/:id
func (h *IncidentHandler) GetIncident(c *gin.Context) {
	incident, err := h.incidentService.GetIncident(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toIncidentResponse(incident))
}

// ListIncidents handles GET /v1/incidents
func (h *IncidentHandler) ListIncidents(c *gin.Context) {
	var q ListIncidentsQuery
	if !bindQuery(c, &q) {
		return
	}

	incidents, err := h.incidentService.ListIncidents(c.Request.Context(), domain.IncidentFilter{
		VehicleID: q.VehicleID,
		Status:    domain.IncidentStatus(q.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]IncidentResponse, 0, len(incidents))
	for _, i := range incidents {
		response = append(response, toIncidentResponse(i))
	}
	respondJSON(c, http.StatusOK, response)
}

// UpdateIncident handles PATCH /v1/incidents/:id
func (h *IncidentHandler) UpdateIncident(c *gin.Context) {
	var req UpdateIncidentRequest
	if !bindJSON(c, &req) {
		return
	}

	incident, err := h.incidentService.UpdateIncident(c.Request.Context(), c.Param("id"), service.UpdateIncidentRequest{
		Status: domain.IncidentStatus(req.Status),
		Cost:   req.Cost,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toIncidentResponse(incident))
}

func toIncidentResponse(i *domain.Incident) IncidentResponse {
	return IncidentResponse{
		ID:          i.ID,
		VehicleID:   i.VehicleID,
		OrderID:     i.OrderID,
		ReportedBy:  i.ReportedBy,
		Type:        string(i.Type),
		Severity:    string(i.Severity),
		Description: i.Description,
		Status:      string(i.Status),
		Cost:        i.Cost,
		CreatedAt:   formatTime(i.CreatedAt),
		ResolvedAt:  formatTime(i.ResolvedAt),
	}
}
