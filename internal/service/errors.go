package service

import "errors"

var (
	// ErrNoRiderAvailable is returned when no rider can be matched.
	ErrNoRiderAvailable = errors.New("no available riders")

	// ErrOrderNotPending is returned when matching an order that is no longer pending.
	ErrOrderNotPending = errors.New("order not in pending state")

	// ErrOrderNotAssigned is returned when completing an order without a rider.
	ErrOrderNotAssigned = errors.New("order not assigned")

	// ErrOrderClosed is returned when cancelling an order that already completed or was cancelled.
	ErrOrderClosed = errors.New("order already closed")

	// ErrOrderBeingMatched is returned when another matching pass holds the order.
	ErrOrderBeingMatched = errors.New("order is being matched")

	// ErrRiderHasOpenOrder is returned when a rider holding an assigned order is put back on shift.
	ErrRiderHasOpenOrder = errors.New("rider has an assigned order")

	// ErrCompanyNotFound is returned when a referenced company does not exist.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrInvalidCompanyID is returned when company ID is empty.
	ErrInvalidCompanyID = errors.New("company id is required")

	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("rider id is required")

	// ErrInvalidOrderID is returned when order ID is empty.
	ErrInvalidOrderID = errors.New("order id is required")

	// ErrMissingName is returned when a registration has no name.
	ErrMissingName = errors.New("name is required")

	// ErrMissingPhone is returned when a company registration has no phone contact.
	ErrMissingPhone = errors.New("phone is required")

	// ErrMissingAddress is returned when a registration has no formatted address.
	ErrMissingAddress = errors.New("formatted address is required")

	// ErrMissingDetails is returned when an order has no details.
	ErrMissingDetails = errors.New("order details are required")

	// ErrMissingLocation is returned when no coordinate was given and none could be geocoded.
	ErrMissingLocation = errors.New("location is required")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidEmail is returned when an optional email is malformed.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidRadius is returned when a nearby search radius is out of range.
	ErrInvalidRadius = errors.New("invalid radius")
)
