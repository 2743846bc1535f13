package models

import "time"

// AvailabilitySlot is a computed candidate bookable range. It is derived on
// every query from fresh calendar data and never persisted.
type AvailabilitySlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
