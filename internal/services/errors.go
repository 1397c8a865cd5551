package services

import "errors"

var (
	// ErrEmptyConfiguration rejects storing a configuration with no
	// selections into a cart.
	ErrEmptyConfiguration = errors.New("configuration is empty")

	// ErrIncompleteConfiguration rejects checkout when the snapshot is
	// missing required component categories.
	ErrIncompleteConfiguration = errors.New("configuration is missing required components")

	// ErrEmptyCart rejects checkout on a zero-value cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOrderNotFound is returned when an order cannot be resolved by id,
	// number or payment reference.
	ErrOrderNotFound = errors.New("order not found")

	// ErrNotPayable is returned when payment is attempted for an order that
	// is no longer PENDING.
	ErrNotPayable = errors.New("order is not awaiting payment")

	// ErrConflict signals a lost optimistic-concurrency race on a status
	// transition; the caller may retry.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrForbidden is returned when a requester may not access a build.
	ErrForbidden = errors.New("not allowed")

	ErrBuildNotFound = errors.New("build not found")
)
