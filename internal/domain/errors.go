package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNeedsRebalance  = errors.New("probability too low, market needs rebalancing")
	ErrVersionConflict = errors.New("reserve version conflict")
	ErrMarketResolved  = errors.New("market already resolved")
	ErrLockHeld        = errors.New("lock already held")
	ErrContextDone     = errors.New("context cancelled")
)
