package availability

import (
	"time"

	"rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
)

// ConflictDetected is emitted when a creation attempt was refused because of
// an existing commitment.
type ConflictDetected struct {
	PropertyID property.PropertyID
	Range      daterange.DateRange
	Conflicts  int
	At         time.Time
}

func (e ConflictDetected) EventName() string     { return "availability.conflict_detected" }
func (e ConflictDetected) AggregateID() string   { return string(e.PropertyID) }
func (e ConflictDetected) OccurredAt() time.Time { return e.At }

type PeriodBlocked struct {
	BlockID    BlockedPeriodID
	PropertyID property.PropertyID
	Range      daterange.DateRange
	Reason     string
	At         time.Time
}

func (e PeriodBlocked) EventName() string     { return "availability.period_blocked" }
func (e PeriodBlocked) AggregateID() string   { return string(e.PropertyID) }
func (e PeriodBlocked) OccurredAt() time.Time { return e.At }
