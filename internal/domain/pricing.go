package domain

import "time"

// PricingRule holds the additive price components for a vehicle or a vehicle class.
// A rule with an empty VehicleID applies to every vehicle matching Seats and Variant.
type PricingRule struct {
	ID             string
	VehicleID      string
	Seats          int
	Variant        string
	BaseHours      int
	BaseHoursPrice *float64
	ExtraHourPrice *float64
	DailyPrice     *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ComputeTotalPrice sums the non-nil price components of rule.
// The result is flat: it is not scaled by rental duration.
func ComputeTotalPrice(rule *PricingRule) float64 {
	if rule == nil {
		return 0
	}
	var total float64
	for _, component := range []*float64{rule.BaseHoursPrice, rule.ExtraHourPrice, rule.DailyPrice} {
		if component != nil {
			total += *component
		}
	}
	return total
}

// HasNegativeComponent reports whether any set price component is below zero.
func (r *PricingRule) HasNegativeComponent() bool {
	for _, component := range []*float64{r.BaseHoursPrice, r.ExtraHourPrice, r.DailyPrice} {
		if component != nil && *component < 0 {
			return true
		}
	}
	return false
}

// PricingRulePatch carries a partial rule update. Nil fields are left untouched.
type PricingRulePatch struct {
	BaseHours      *int
	BaseHoursPrice *float64
	ExtraHourPrice *float64
	DailyPrice     *float64
}

// Apply merges the non-nil fields of p into r.
func (p PricingRulePatch) Apply(r *PricingRule) {
	if p.BaseHours != nil {
		r.BaseHours = *p.BaseHours
	}
	if p.BaseHoursPrice != nil {
		v := *p.BaseHoursPrice
		r.BaseHoursPrice = &v
	}
	if p.ExtraHourPrice != nil {
		v := *p.ExtraHourPrice
		r.ExtraHourPrice = &v
	}
	if p.DailyPrice != nil {
		v := *p.DailyPrice
		r.DailyPrice = &v
	}
}
