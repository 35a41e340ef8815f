package repository

import "errors"

// Sentinel kinds for persistence errors. The store's rollback logic keys
// off these: any error rolls back, but the API layer maps transport and
// validation failures to different status codes.
var (
	ErrNotFound   = errors.New("record not found")
	ErrTransport  = errors.New("persistence transport failure")
	ErrValidation = errors.New("persistence validation failure")
)
