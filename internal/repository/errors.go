package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrRiderUnavailable is returned when a rider claim loses to another order.
	ErrRiderUnavailable = errors.New("rider no longer available")

	// ErrStatusConflict is returned when a conditional status transition finds
	// the entity in a different state than expected.
	ErrStatusConflict = errors.New("entity status changed concurrently")
)
