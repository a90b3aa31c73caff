package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
	"rentcore/internal/domain/shared/events"
)

var (
	ErrBookingNotFound = errors.New("booking: not found")
	ErrGuestRequired   = errors.New("booking: guest id required")
	ErrStartRequired   = errors.New("booking: start date required")
	ErrStartInPast     = errors.New("booking: start date is in the past")
	ErrInvalidState    = errors.New("booking: invalid state transition")
)

type BookingID string

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Booking is a daily-mode stay. End may be nil for an open-ended stay; every
// conflict check sees such a booking as occupying exactly one night starting
// at Start (see EffectiveRange).
type Booking struct {
	ID         BookingID
	PropertyID property.PropertyID
	GuestID    string
	Start      time.Time
	End        *time.Time
	Guests     int
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

// Store is the booking collaborator contract. FindOverlapping excludes
// cancelled bookings; implementations may over-fetch, the availability engine
// re-applies the overlap predicate on effective ranges.
type Store interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	FindOverlapping(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange) ([]*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Save(ctx context.Context, b *Booking) error
}

// EffectiveRange is the single place the open-ended policy lives: a booking
// without an end date occupies [start, start+1 day).
func (b *Booking) EffectiveRange() daterange.DateRange {
	start := daterange.Day(b.Start)
	if b.End == nil {
		return daterange.DateRange{Start: start, End: start.AddDate(0, 0, 1)}
	}
	return daterange.DateRange{Start: start, End: daterange.Day(*b.End)}
}

type CreateParams struct {
	ID         BookingID
	PropertyID property.PropertyID
	GuestID    string
	Start      time.Time
	End        *time.Time
	Guests     int
	Now        time.Time
}

func New(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if params.Start.IsZero() {
		return nil, ErrStartRequired
	}
	now := params.Now.UTC()
	start := daterange.Day(params.Start)
	if start.Before(daterange.Day(now)) {
		return nil, ErrStartInPast
	}
	var end *time.Time
	if params.End != nil {
		e := daterange.Day(*params.End)
		if !e.After(start) {
			return nil, daterange.ErrInvalidRange
		}
		end = &e
	}
	guests := params.Guests
	if guests <= 0 {
		guests = 1
	}
	b := &Booking{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		GuestID:    params.GuestID,
		Start:      start,
		End:        end,
		Guests:     guests,
		Status:     StatusConfirmed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingCreated{BookingID: b.ID, PropertyID: b.PropertyID, GuestID: b.GuestID, Range: b.EffectiveRange(), At: now})
	return b, nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, PropertyID: b.PropertyID, Reason: reason, At: b.UpdatedAt})
	return nil
}
