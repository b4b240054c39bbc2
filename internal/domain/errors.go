package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Input/validation errors: rejected before any state change.
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidOutcome = errors.New("invalid outcome")
	ErrInvalidAmount  = errors.New("invalid amount")

	// State-conflict errors: operation invalid given the current lifecycle
	// state. Never retried.
	ErrMarketNotOpen      = errors.New("market not open for betting")
	ErrInvalidMarketState = errors.New("invalid market state")
	ErrAlreadySettled     = errors.New("market already settled")
	ErrAlreadyVoided      = errors.New("market already voided")
	ErrBetLost            = errors.New("bet did not win")
	ErrAlreadyClaimed     = errors.New("bet already claimed")
	ErrAlreadyRefunded    = errors.New("bet already refunded")

	ErrNotOwner     = errors.New("caller is not the owner")
	ErrUnauthorized = errors.New("unauthorized")
	ErrLockHeld     = errors.New("lock already held")
)
