package domain

import "time"

// Station is a pickup/return location that vehicles are assigned to.
type Station struct {
	ID        string
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Capacity  int // 0 means unlimited
	CreatedAt time.Time
}

// StationPatch carries a partial station update. Nil fields are left untouched.
type StationPatch struct {
	Name      *string
	Address   *string
	Latitude  *float64
	Longitude *float64
	Capacity  *int
}

// Apply merges the non-nil fields of p into s.
func (p StationPatch) Apply(s *Station) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Latitude != nil {
		s.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		s.Longitude = *p.Longitude
	}
	if p.Capacity != nil {
		s.Capacity = *p.Capacity
	}
}
