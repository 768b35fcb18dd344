package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrDuplicateID       = errors.New("duplicate id") // a row set repeats an id
	ErrUnknownAdvertiser = errors.New("unknown advertiser")
)

// ReferenceIntegrityError reports a hotel whose city id does not resolve.
// It is fatal at load time.
type ReferenceIntegrityError struct {
	HotelID int
	CityID  int
}

func (e *ReferenceIntegrityError) Error() string {
	return fmt.Sprintf("hotel %d references unknown city %d", e.HotelID, e.CityID)
}
