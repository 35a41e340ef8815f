package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrThreadNotFound = errors.New("thread not found in any loaded clip")
)
