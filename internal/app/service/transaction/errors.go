package transaction

import "errors"

var (
	// ErrStorage wraps any failure to persist the transaction row. Nothing
	// was recorded when it is returned.
	ErrStorage = errors.New("transaction storage failure")

	ErrFuelTypeUnavailable = errors.New("fuel type is not available")
	ErrInvalidRequest      = errors.New("invalid transaction request")
	ErrNotFound            = errors.New("transaction not found")

	// ErrAlreadyRecorded is returned with the existing row when a payment
	// session has been recorded before.
	ErrAlreadyRecorded = errors.New("payment session already recorded")
)
