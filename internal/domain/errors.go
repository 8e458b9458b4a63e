package domain

import "errors"

// Error taxonomy shared by the use cases and translated by the adapters.
// Callers wrap these with context and test for them with errors.Is.
var (
	// ErrNotFound is returned when a referenced portfolio, asset, price or lot does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidRange is returned when a query's end date is before its start date
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidInput is returned when an entity or request fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingPrice is returned when a mutation needs a price observation that is absent
	ErrMissingPrice = errors.New("missing price")

	// ErrMissingPriorHolding is returned when a trade references a position with no prior lot
	ErrMissingPriorHolding = errors.New("no prior holding")

	// ErrNegativeResult is returned when a trade would leave a negative quantity
	ErrNegativeResult = errors.New("negative resulting quantity")
)
