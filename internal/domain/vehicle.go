package domain

import "time"

// VehicleStatus represents the current status of a vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "AVAILABLE"
	VehicleStatusRental      VehicleStatus = "RENTAL"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
)

// Valid reports whether s is a known vehicle status.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusRental, VehicleStatusMaintenance:
		return true
	}
	return false
}

// Vehicle represents a rentable car in the fleet.
type Vehicle struct {
	ID          string
	PlateNumber string
	Brand       string
	Model       string
	Seats       int
	Variant     string
	Status      VehicleStatus
	StationID   string // Empty when not assigned to a station
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VehicleFilter narrows vehicle listings. Zero values are ignored.
type VehicleFilter struct {
	Status    VehicleStatus
	StationID string
	Seats     int
}

// VehiclePatch carries a partial vehicle update. Nil fields are left untouched.
type VehiclePatch struct {
	PlateNumber *string
	Brand       *string
	Model       *string
	Seats       *int
	Variant     *string
	Status      *VehicleStatus
}

// Apply merges the non-nil fields of p into v.
func (p VehiclePatch) Apply(v *Vehicle) {
	if p.PlateNumber != nil {
		v.PlateNumber = *p.PlateNumber
	}
	if p.Brand != nil {
		v.Brand = *p.Brand
	}
	if p.Model != nil {
		v.Model = *p.Model
	}
	if p.Seats != nil {
		v.Seats = *p.Seats
	}
	if p.Variant != nil {
		v.Variant = *p.Variant
	}
	if p.Status != nil {
		v.Status = *p.Status
	}
}
