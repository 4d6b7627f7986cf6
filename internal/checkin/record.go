package checkin

import "errors"

// ErrInvalidRecord is returned when an insert is missing a required field.
var ErrInvalidRecord = errors.New("invalid check-in record")

// Record is one submitted check-in. Records are immutable once stored.
type Record struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Timestamp int64  `json:"timestamp"` // seconds since Unix epoch
}

// NewRecord is the insert payload. Only presence and type are checked;
// email is never validated as an address and any epoch second, 0
// included, is a valid timestamp.
type NewRecord struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Timestamp int64  `json:"timestamp"`
}
