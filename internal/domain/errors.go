package domain

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrUnauthorized   = errors.New("unauthorized")
	// ErrProvider covers payment provider failures, including webhook signature mismatches.
	ErrProvider = errors.New("payment provider error")
	// ErrPersistence is a ledger write failure during fulfillment.
	ErrPersistence = errors.New("persistence error")
)
