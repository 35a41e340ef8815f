package store

import "errors"

// Sentinel kinds for annotation store errors.
var (
	ErrNotLoaded      = errors.New("store not loaded")
	ErrThreadNotFound = errors.New("thread not found")
	ErrInvalidShape   = errors.New("invalid shape kind")
	ErrInvalidStatus  = errors.New("invalid asset status")
	ErrRoundClosed    = errors.New("thread belongs to a closed round")
	ErrStoreClosed    = errors.New("store closed")
	ErrQueueFull      = errors.New("mutation queue full")
)
