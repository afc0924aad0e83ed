package domain

import (
	"math"
	"time"
)

// Coupon is a percentage discount code applied to an order total.
type Coupon struct {
	Code            string
	DiscountPercent float64
	MaxDiscount     float64 // 0 means no cap
	ValidFrom       time.Time
	ValidUntil      time.Time
	UsageLimit      int // 0 means unlimited
	UsedCount       int
	Active          bool
}

// Usable reports whether the coupon can be redeemed at now.
func (c *Coupon) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if !c.ValidFrom.IsZero() && now.Before(c.ValidFrom) {
		return false
	}
	if !c.ValidUntil.IsZero() && !now.Before(c.ValidUntil) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// Apply returns total after the coupon's discount, never below zero.
func (c *Coupon) Apply(total float64) float64 {
	discount := total * c.DiscountPercent / 100
	if c.MaxDiscount > 0 && discount > c.MaxDiscount {
		discount = c.MaxDiscount
	}
	return math.Max(0, math.Round((total-discount)*100)/100)
}
