package booking

import (
	"time"

	"rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
)

type BookingCreated struct {
	BookingID  BookingID
	PropertyID property.PropertyID
	GuestID    string
	Range      daterange.DateRange
	At         time.Time
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID  BookingID
	PropertyID property.PropertyID
	Reason     string
	At         time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
