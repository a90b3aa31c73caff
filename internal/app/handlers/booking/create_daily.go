package booking

import (
	"context"
	"log/slog"
	"time"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/handlers/support"
	"rentcore/internal/app/middleware"
	"rentcore/internal/app/outbox"
	"rentcore/internal/app/uow"
	domainavailability "rentcore/internal/domain/availability"
	domainbooking "rentcore/internal/domain/booking"
	domainproperty "rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
	"rentcore/internal/domain/shared/events"
)

const createDailyBookingKey = "booking.create_daily"

type CreateDailyBookingCommand struct {
	CommandID       string
	PropertyID      string `validate:"required"`
	GuestID         string `validate:"required"`
	Start           time.Time
	End             *time.Time
	Guests          int
	IdempotencyKeyV string
}

func (c CreateDailyBookingCommand) Key() string { return createDailyBookingKey }

func (c CreateDailyBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateDailyBookingCommand) ResultPrototype() any { return &CreateDailyBookingResult{} }

func (c CreateDailyBookingCommand) PropertyScope() string { return c.PropertyID }

type CreateDailyBookingResult struct {
	BookingID string `json:"booking_id,omitempty"`
	Created   bool   `json:"created"`
	Reason    string `json:"reason,omitempty"`
}

// CreateDailyBookingHandler sequences the daily path: rental mode check,
// availability check, booking creation. It owns no overlap or pricing rule of
// its own and never raises for an expected business refusal.
type CreateDailyBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *CreateDailyBookingHandler) Handle(ctx context.Context, cmd CreateDailyBookingCommand) (*CreateDailyBookingResult, error) {
	unit, owned, ctx, err := support.Acquire(ctx, h.UoWFactory, uow.TxOptions{Property: cmd.PropertyID})
	if err != nil {
		return nil, err
	}
	committed := false
	if owned {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	propertyID := domainproperty.PropertyID(cmd.PropertyID)
	refuse := func(reason string) (*CreateDailyBookingResult, error) {
		res := &CreateDailyBookingResult{Reason: reason}
		if owned {
			if err := unit.Commit(ctx); err != nil {
				return nil, err
			}
			committed = true
		}
		return res, nil
	}

	mode, err := unit.Properties().RentalMode(ctx, propertyID)
	if err != nil {
		h.logger().WarnContext(ctx, "booking creation failed closed", "property_id", cmd.PropertyID, "error", err)
		return refuse("booking could not be created")
	}
	if mode != domainproperty.ModeDaily {
		return refuse("property is not offered for daily rental")
	}

	stay, err := requestedStay(cmd.Start, cmd.End)
	if err != nil {
		return refuse(err.Error())
	}

	now := h.now()
	engine := support.Engine(unit, h.Logger, h.Now)
	if !engine.IsAvailableForDaily(ctx, propertyID, stay) {
		ev := domainavailability.ConflictDetected{PropertyID: propertyID, Range: stay, At: now}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{ev}); err != nil {
			return nil, err
		}
		return refuse("property is not available for the requested dates")
	}

	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(cmd.CommandID),
		PropertyID: propertyID,
		GuestID:    cmd.GuestID,
		Start:      cmd.Start,
		End:        cmd.End,
		Guests:     cmd.Guests,
		Now:        now,
	})
	if err != nil {
		return refuse(err.Error())
	}
	if err := unit.Bookings().Create(ctx, b); err != nil {
		h.logger().ErrorContext(ctx, "booking store create failed", "booking_id", cmd.CommandID, "error", err)
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if owned {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &CreateDailyBookingResult{BookingID: string(b.ID), Created: true}, nil
}

// requestedStay applies the open-ended policy before any availability check:
// a missing end date asks for exactly one night.
func requestedStay(start time.Time, end *time.Time) (daterange.DateRange, error) {
	if end == nil {
		return daterange.SingleDay(start), nil
	}
	return daterange.New(daterange.Day(start), daterange.Day(*end))
}

func (h *CreateDailyBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateDailyBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *CreateDailyBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateDailyBookingCommand, *CreateDailyBookingResult] = (*CreateDailyBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateDailyBookingCommand{}
var _ middleware.PropertyScoped = CreateDailyBookingCommand{}
