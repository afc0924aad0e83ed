package service

import (
	"fmt"
	"strings"
	"time"

	"carrental/internal/domain"
)

// ReceiptLine is one priced line of a receipt.
type ReceiptLine struct {
	Type        domain.DetailType `json:"type"`
	Description string            `json:"description,omitempty"`
	Amount      float64           `json:"amount"`
}

// Receipt summarises a completed rental.
type Receipt struct {
	OrderID      string        `json:"order_id"`
	CustomerID   string        `json:"customer_id"`
	VehicleID    string        `json:"vehicle_id"`
	CouponCode   string        `json:"coupon_code,omitempty"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	PickedUpAt   time.Time     `json:"picked_up_at"`
	ReturnedAt   time.Time     `json:"returned_at"`
	PlannedHours float64       `json:"planned_hours"`
	ActualHours  *float64      `json:"actual_hours,omitempty"`
	Lines        []ReceiptLine `json:"lines"`
	Total        float64       `json:"total"`
	IssuedAt     time.Time     `json:"issued_at"`
}

// NewReceipt builds a receipt from an order and its non-cancelled details.
// The total is the order's total; line amounts are informational.
func NewReceipt(order *domain.RentalOrder, details []*domain.RentalOrderDetail, issuedAt time.Time) *Receipt {
	receipt := &Receipt{
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		VehicleID:    order.VehicleID,
		CouponCode:   order.CouponCode,
		StartTime:    order.StartTime,
		EndTime:      order.EndTime,
		PickedUpAt:   order.PickedUpAt,
		ReturnedAt:   order.ReturnedAt,
		PlannedHours: order.PlannedHours,
		ActualHours:  order.ActualHours,
		Total:        order.TotalPrice,
		IssuedAt:     issuedAt,
	}

	for _, d := range details {
		if d.Status == domain.DetailStatusCancelled {
			continue
		}
		receipt.Lines = append(receipt.Lines, ReceiptLine{
			Type:        d.Type,
			Description: d.Description,
			Amount:      d.Price,
		})
	}
	return receipt
}

// Format renders the receipt as plain text for email or print.
func (r *Receipt) Format() string {
	var b strings.Builder

	b.WriteString("=====================================\n")
	b.WriteString("           RENTAL RECEIPT\n")
	b.WriteString("=====================================\n")
	fmt.Fprintf(&b, "Order ID:  %s\n", r.OrderID)
	fmt.Fprintf(&b, "Vehicle:   %s\n", r.VehicleID)
	fmt.Fprintf(&b, "Issued:    %s\n\n", formatTime(r.IssuedAt))

	b.WriteString("RENTAL\n")
	b.WriteString("-------------------------------------\n")
	fmt.Fprintf(&b, "Booked:    %s - %s\n", formatTime(r.StartTime), formatTime(r.EndTime))
	if !r.PickedUpAt.IsZero() {
		fmt.Fprintf(&b, "Picked up: %s\n", formatTime(r.PickedUpAt))
	}
	if !r.ReturnedAt.IsZero() {
		fmt.Fprintf(&b, "Returned:  %s\n", formatTime(r.ReturnedAt))
	}
	fmt.Fprintf(&b, "Planned:   %.1f h\n", r.PlannedHours)
	if r.ActualHours != nil {
		fmt.Fprintf(&b, "Actual:    %.1f h\n", *r.ActualHours)
	}

	b.WriteString("\nCHARGES\n")
	b.WriteString("-------------------------------------\n")
	for _, line := range r.Lines {
		label := string(line.Type)
		if line.Description != "" {
			label = line.Description
		}
		fmt.Fprintf(&b, "%-24s %12.2f\n", label, line.Amount)
	}
	if r.CouponCode != "" {
		fmt.Fprintf(&b, "Coupon %-17s\n", r.CouponCode)
	}
	b.WriteString("-------------------------------------\n")
	fmt.Fprintf(&b, "%-24s %12.2f\n", "TOTAL", r.Total)
	b.WriteString("=====================================\n")

	return b.String()
}
