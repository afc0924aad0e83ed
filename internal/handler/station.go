package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carrental/internal/domain"
	"carrental/internal/service"
)

// StationHandler handles HTTP requests for stations.
type StationHandler struct {
	stationService *service.StationService
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stationService *service.StationService) *StationHandler {
	return &StationHandler{stationService: stationService}
}

// CreateStationRequest is the HTTP request body for adding a station.
type CreateStationRequest struct {
	Name      string  `json:"name" binding:"required"`
	Address   string  `json:"address" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"gte=-180,lte=180"`
	Capacity  int     `json:"capacity" binding:"gte=0"`
}

// UpdateStationRequest is the HTTP request body for a partial station update.
type UpdateStationRequest struct {
	Name      *string  `json:"name" binding:"omitempty,min=1"`
	Address   *string  `json:"address" binding:"omitempty,min=1"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	Capacity  *int     `json:"capacity" binding:"omitempty,gte=0"`
}

// NearbyQuery holds a station search point.
type NearbyQuery struct {
	Lat      float64 `form:"lat" binding:"gte=-90,lte=90"`
	Lng      float64 `form:"lng" binding:"gte=-180,lte=180"`
	RadiusKm float64 `form:"radius_km" binding:"omitempty,gt=0,lte=100"`
}

// StationResponse is the HTTP representation of a station.
type StationResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Capacity   int      `json:"capacity"`
	CreatedAt  string   `json:"created_at"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// CreateStation handles POST /v1/stations
func (h *StationHandler) CreateStation(c *gin.Context) {
	var req CreateStationRequest
	if !bindJSON(c, &req) {
		return
	}

	station, err := h.stationService.CreateStation(c.Request.Context(), service.CreateStationRequest{
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Capacity:  req.Capacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toStationResponse(station))
}

// GetStation handles GET /v1/stations/:id
func (h *StationHandler) GetStation(c *gin.Context) {
	station, err := h.stationService.GetStation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toStationResponse(station))
}

// ListStations handles GET /v1/stations
func (h *StationHandler) ListStations(c *gin.Context) {
	stations, err := h.stationService.ListStations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]StationResponse, 0, len(stations))
	for _, s := range stations {
		response = append(response, toStationResponse(s))
	}
	respondJSON(c, http.StatusOK, response)
}

// FindNearby handles GET /v1/stations/nearby
func (h *StationHandler) FindNearby(c *gin.Context) {
	var q NearbyQuery
	if !bindQuery(c, &q) {
		return
	}

	nearby, err := h.stationService.FindNearby(c.Request.Context(), q.Lat, q.Lng, q.RadiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]StationResponse, 0, len(nearby))
	for _, n := range nearby {
		r := toStationResponse(n.Station)
		distance := n.DistanceKm
		r.DistanceKm = &distance
		response = append(response, r)
	}
	respondJSON(c, http.StatusOK, response)
}

// UpdateStation handles PATCH /v1/stations/:id
func (h *StationHandler) UpdateStation(c *gin.Context) {
	var req UpdateStationRequest
	if !bindJSON(c, &req) {
		return
	}

	station, err := h.stationService.UpdateStation(c.Request.Context(), c.Param("id"), domain.StationPatch{
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Capacity:  req.Capacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toStationResponse(station))
}

// DeleteStation handles DELETE /v1/stations/:id
func (h *StationHandler) DeleteStation(c *gin.Context) {
	if err := h.stationService.DeleteStation(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toStationResponse(s *domain.Station) StationResponse {
	return StationResponse{
		ID:        s.ID,
		Name:      s.Name,
		Address:   s.Address,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Capacity:  s.Capacity,
		CreatedAt: formatTime(s.CreatedAt),
	}
}
