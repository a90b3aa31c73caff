package availability

import (
	"context"
	"errors"
	"time"

	"rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
)

var (
	ErrBlockNotFound  = errors.New("availability: blocked period not found")
	ErrReasonRequired = errors.New("availability: block reason required")
)

// ConflictType classifies the source of an overlapping commitment.
type ConflictType string

const (
	ConflictBooking ConflictType = "BOOKING"
	ConflictLease   ConflictType = "LEASE"
	ConflictBlocked ConflictType = "BLOCKED"
)

// Conflict is the uniform diagnostic record produced by conflict aggregation.
// Lists of conflicts are always sorted by range start.
type Conflict struct {
	Type        ConflictType
	Range       daterange.DateRange
	Description string
	SourceID    string
}

type BlockedPeriodID string

// BlockedPeriod is a landlord-imposed block, independent of bookings and
// leases, and a conflict source in both rental modes.
type BlockedPeriod struct {
	ID         BlockedPeriodID
	PropertyID property.PropertyID
	Range      daterange.DateRange
	Reason     string
	CreatedAt  time.Time
}

type BlockedPeriodStore interface {
	FindOverlapping(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange) ([]*BlockedPeriod, error)
	Create(ctx context.Context, bp *BlockedPeriod) error
}

func NewBlockedPeriod(id BlockedPeriodID, propertyID property.PropertyID, r daterange.DateRange, reason string, now time.Time) (*BlockedPeriod, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return &BlockedPeriod{
		ID:         id,
		PropertyID: propertyID,
		Range:      r,
		Reason:     reason,
		CreatedAt:  now.UTC(),
	}, nil
}
