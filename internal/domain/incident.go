package domain

import "time"

// IncidentType classifies a reported vehicle incident.
type IncidentType string

const (
	IncidentTypeDamage      IncidentType = "DAMAGE"
	IncidentTypeAccident    IncidentType = "ACCIDENT"
	IncidentTypeMaintenance IncidentType = "MAINTENANCE"
	IncidentTypeOther       IncidentType = "OTHER"
)

// IncidentSeverity grades how serious an incident is.
type IncidentSeverity string

const (
	IncidentSeverityLow    IncidentSeverity = "LOW"
	IncidentSeverityMedium IncidentSeverity = "MEDIUM"
	IncidentSeverityHigh   IncidentSeverity = "HIGH"
)

// IncidentStatus represents the handling state of an incident.
type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "OPEN"
	IncidentStatusInProgress IncidentStatus = "IN_PROGRESS"
	IncidentStatusResolved   IncidentStatus = "RESOLVED"
)

// Incident is damage, an accident or scheduled maintenance on a vehicle.
type Incident struct {
	ID          string
	VehicleID   string
	OrderID     string
	ReportedBy  string
	Type        IncidentType
	Severity    IncidentSeverity
	Description string
	Status      IncidentStatus
	Cost        float64
	CreatedAt   time.Time
	ResolvedAt  time.Time
}

// TakesVehicleOffline reports whether the incident should pull the vehicle from rental.
func (i *Incident) TakesVehicleOffline() bool {
	return i.Type == IncidentTypeMaintenance || i.Severity == IncidentSeverityHigh
}

// IncidentFilter narrows incident listings. Zero values are ignored.
type IncidentFilter struct {
	VehicleID string
	Status    IncidentStatus
}
