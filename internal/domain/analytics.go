package domain

import "time"

// VehicleRevenue is a vehicle's share of completed-order revenue.
type VehicleRevenue struct {
	VehicleID   string
	PlateNumber string
	Orders      int
	Revenue     float64
}

// Dashboard aggregates the admin KPIs for a reporting window.
type Dashboard struct {
	From            time.Time
	To              time.Time
	Revenue         float64
	OrdersByStatus  map[OrderStatus]int
	FleetByStatus   map[VehicleStatus]int
	UtilizationRate float64
	TopVehicles     []VehicleRevenue
	OpenIncidents   int
}
