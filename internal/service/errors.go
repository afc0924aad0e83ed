package service

import (
	"errors"
	"fmt"

	"carrental/internal/repository"
)

// Error kinds. Every service error wraps exactly one of these so callers can
// classify it with errors.Is.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = repository.ErrNotFound

	// ErrConflict is returned for ineligible state transitions and double bookings.
	ErrConflict = errors.New("conflict")

	// ErrBadRequest is returned for malformed input.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized is returned when credentials are missing or wrong.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrTooManyRequests is returned when a rate limit is hit.
	ErrTooManyRequests = errors.New("too many requests")
)

var (
	// ErrInvalidWindow is returned when a rental window does not end after it starts.
	ErrInvalidWindow = fmt.Errorf("%w: start time must be before end time", ErrBadRequest)

	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = fmt.Errorf("%w: invalid customer id", ErrBadRequest)

	// ErrInvalidVehicleID is returned when vehicle ID is empty.
	ErrInvalidVehicleID = fmt.Errorf("%w: invalid vehicle id", ErrBadRequest)

	// ErrInvalidOrderID is returned when order ID is empty.
	ErrInvalidOrderID = fmt.Errorf("%w: invalid order id", ErrBadRequest)

	// ErrInvalidHours is returned when planned or actual hours are negative.
	ErrInvalidHours = fmt.Errorf("%w: hours must not be negative", ErrBadRequest)

	// ErrSameVehicle is returned when reassigning an order to its current vehicle.
	ErrSameVehicle = fmt.Errorf("%w: order already uses this vehicle", ErrBadRequest)

	// ErrVehicleUnavailable is returned when the window overlaps an existing booking.
	ErrVehicleUnavailable = fmt.Errorf("%w: vehicle is already booked for the requested window", ErrConflict)

	// ErrVehicleUnderMaintenance is returned when booking or handing over a vehicle in maintenance.
	ErrVehicleUnderMaintenance = fmt.Errorf("%w: vehicle is under maintenance", ErrConflict)

	// ErrVehicleBusy is returned when another booking for the vehicle is in flight.
	ErrVehicleBusy = fmt.Errorf("%w: vehicle is being booked by another request", ErrConflict)

	// ErrInvalidOrderTransition is returned when an order is not in a state that allows the action.
	ErrInvalidOrderTransition = fmt.Errorf("%w: order status does not allow this action", ErrConflict)

	// ErrPricingRuleNotFound is returned when no rule applies to a vehicle.
	ErrPricingRuleNotFound = fmt.Errorf("%w: no pricing rule for vehicle", ErrNotFound)

	// ErrNegativePrice is returned when a pricing rule has a negative component.
	ErrNegativePrice = fmt.Errorf("%w: price components must not be negative", ErrBadRequest)

	// ErrInvalidPricingScope is returned when a rule targets neither a vehicle nor a class.
	ErrInvalidPricingScope = fmt.Errorf("%w: pricing rule needs a vehicle or a seat count", ErrBadRequest)

	// ErrPricingRuleExists is returned when a rule already covers the same vehicle or class.
	ErrPricingRuleExists = fmt.Errorf("%w: pricing rule already exists for this scope", ErrConflict)

	// ErrCouponNotFound is returned when a coupon code is unknown.
	ErrCouponNotFound = fmt.Errorf("%w: coupon not found", ErrNotFound)

	// ErrCouponNotUsable is returned for inactive, expired or exhausted coupons.
	ErrCouponNotUsable = fmt.Errorf("%w: coupon is expired or no longer usable", ErrBadRequest)
)

var (
	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = fmt.Errorf("%w: invalid email", ErrBadRequest)

	// ErrWeakPassword is returned when a password is too short.
	ErrWeakPassword = fmt.Errorf("%w: password must be at least 8 characters", ErrBadRequest)

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)

	// ErrEmailAlreadyVerified is returned when verifying an already verified email.
	ErrEmailAlreadyVerified = fmt.Errorf("%w: email already verified", ErrConflict)

	// ErrOTPExpired is returned when no live code exists.
	ErrOTPExpired = fmt.Errorf("%w: verification code expired or not requested", ErrBadRequest)

	// ErrOTPInvalid is returned when the submitted code does not match.
	ErrOTPInvalid = fmt.Errorf("%w: verification code is incorrect", ErrBadRequest)

	// ErrOTPAttemptsExceeded is returned when too many wrong codes were submitted.
	ErrOTPAttemptsExceeded = fmt.Errorf("%w: too many incorrect codes, request a new one", ErrTooManyRequests)

	// ErrOTPCooldown is returned when a new code is requested too soon.
	ErrOTPCooldown = fmt.Errorf("%w: wait before requesting another code", ErrTooManyRequests)

	// ErrInvalidCredentials is returned when email or password is wrong.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)

	// ErrEmailNotVerified is returned when logging in before verifying the email.
	ErrEmailNotVerified = fmt.Errorf("%w: email not verified", ErrForbidden)
)

var (
	// ErrPlateTaken is returned when a plate number is already registered.
	ErrPlateTaken = fmt.Errorf("%w: plate number already registered", ErrConflict)

	// ErrInvalidVehicle is returned when vehicle fields are missing or out of range.
	ErrInvalidVehicle = fmt.Errorf("%w: plate number, brand, model and positive seats are required", ErrBadRequest)

	// ErrInvalidVehicleStatus is returned for unknown or manually disallowed statuses.
	ErrInvalidVehicleStatus = fmt.Errorf("%w: vehicle status cannot be set manually", ErrBadRequest)

	// ErrVehicleHasBookings is returned when deleting or freeing a vehicle that still holds or has bookings.
	ErrVehicleHasBookings = fmt.Errorf("%w: vehicle has active bookings", ErrConflict)

	// ErrVehicleStatusChanged is returned when a vehicle's status moved while it was being edited.
	ErrVehicleStatusChanged = fmt.Errorf("%w: vehicle status changed concurrently", ErrConflict)

	// ErrInvalidStation is returned when station fields are missing or out of range.
	ErrInvalidStation = fmt.Errorf("%w: station name, address and non-negative capacity are required", ErrBadRequest)

	// ErrStationFull is returned when a station has no free capacity.
	ErrStationFull = fmt.Errorf("%w: station is at capacity", ErrConflict)

	// ErrStationNotEmpty is returned when deleting a station with assigned vehicles.
	ErrStationNotEmpty = fmt.Errorf("%w: station still has vehicles assigned", ErrConflict)
)

var (
	// ErrInvalidIncident is returned when incident fields are missing or unknown.
	ErrInvalidIncident = fmt.Errorf("%w: invalid incident", ErrBadRequest)

	// ErrInvalidIncidentTransition is returned when an incident cannot move to the requested status.
	ErrInvalidIncidentTransition = fmt.Errorf("%w: incident status does not allow this change", ErrConflict)

	// ErrInvalidPaymentSignature is returned when a gateway callback fails verification.
	ErrInvalidPaymentSignature = fmt.Errorf("%w: invalid payment signature", ErrBadRequest)

	// ErrPaymentAmountMismatch is returned when the gateway reports a different amount.
	ErrPaymentAmountMismatch = fmt.Errorf("%w: payment amount mismatch", ErrBadRequest)

	// ErrInvalidDateRange is returned when a reporting range does not end after it starts.
	ErrInvalidDateRange = fmt.Errorf("%w: from must be before to", ErrBadRequest)
)
