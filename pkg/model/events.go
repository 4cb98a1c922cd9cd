package model

import (
	"time"

	"github.com/google/uuid"
)

// ExportEvent reports the outcome of one destination delivery in an export cycle.
type ExportEvent struct {
	ID          uuid.UUID `json:"id"`
	CycleID     uuid.UUID `json:"cycle_id"`
	Destination string    `json:"destination"`
	Delivered   bool      `json:"delivered"`
	Reason      string    `json:"reason,omitempty"`
	Targets     int       `json:"targets"`
	Timestamp   time.Time `json:"timestamp"`
}
