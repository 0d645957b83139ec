package domain

import "errors"

var (
	ErrTurnInFlight   = errors.New("turn already in flight")
	ErrEmptyMessage   = errors.New("empty message")
	ErrNothingToRetry = errors.New("no completed turn to retry")
)
