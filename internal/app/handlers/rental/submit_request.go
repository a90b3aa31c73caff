package rental

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
	domainlease "rentcore/internal/domain/lease"
	domainproperty "rentcore/internal/domain/property"
	domainrental "rentcore/internal/domain/rental"
	"rentcore/internal/domain/shared/daterange"
	"rentcore/internal/domain/shared/events"
)

const submitRequestKey = "rental.submit_request"

type SubmitRentalRequestCommand struct {
	CommandID           string
	PropertyID          string `validate:"required"`
	UserID              string `validate:"required"`
	Start               time.Time
	End                 time.Time
	LeaseDurationMonths int `validate:"gt=0"`
	IdempotencyKeyV     string
}

func (c SubmitRentalRequestCommand) Key() string { return submitRequestKey }

func (c SubmitRentalRequestCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SubmitRentalRequestCommand) ResultPrototype() any { return &SubmitRentalRequestResult{} }

func (c SubmitRentalRequestCommand) PropertyScope() string { return c.PropertyID }

type SubmitRentalRequestResult struct {
	RequestID string `json:"request_id,omitempty"`
	Submitted bool   `json:"submitted"`
	Reason    string `json:"reason,omitempty"`
}

// SubmitRentalRequestHandler sequences the annual path: rental mode check,
// minimum lease duration, availability, then the insert at PENDING. The
// pending-overlap check runs inside the same property-scoped unit of work, so
// two racing submissions cannot both survive.
type SubmitRentalRequestHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *SubmitRentalRequestHandler) Handle(ctx context.Context, cmd SubmitRentalRequestCommand) (*SubmitRentalRequestResult, error) {
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
	refuse := func(reason string) (*SubmitRentalRequestResult, error) {
		res := &SubmitRentalRequestResult{Reason: reason}
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
		h.logger().WarnContext(ctx, "rental request failed closed", "property_id", cmd.PropertyID, "error", err)
		return refuse("rental request could not be submitted")
	}
	if mode == domainproperty.ModeDaily {
		return refuse("property is not offered for annual rental")
	}

	if !domainlease.IsValidLeaseDuration(cmd.Start, cmd.End) {
		return refuse("lease must span at least 180 days")
	}
	proposed, err := daterange.New(daterange.Day(cmd.Start), daterange.Day(cmd.End))
	if err != nil {
		return refuse(err.Error())
	}

	now := h.now()
	engine := support.Engine(unit, h.Logger, h.Now)
	if !engine.IsAvailableForAnnual(ctx, propertyID, proposed) {
		ev := domainavailability.ConflictDetected{PropertyID: propertyID, Range: proposed, At: now}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{ev}); err != nil {
			return nil, err
		}
		return refuse("property has a conflicting commitment for these dates")
	}

	pending, err := unit.Requests().FindPendingOverlapping(ctx, propertyID, proposed)
	if err != nil {
		h.logger().WarnContext(ctx, "rental request failed closed", "property_id", cmd.PropertyID, "error", err)
		return refuse("rental request could not be submitted")
	}
	if len(pending) > 0 {
		return refuse("a pending request already covers these dates")
	}

	req, err := domainrental.New(domainrental.CreateParams{
		ID:                  domainrental.RequestID(cmd.CommandID),
		PropertyID:          propertyID,
		UserID:              cmd.UserID,
		Start:               cmd.Start,
		End:                 cmd.End,
		LeaseDurationMonths: cmd.LeaseDurationMonths,
		Now:                 now,
	})
	if err != nil {
		return refuse(err.Error())
	}
	if err := unit.Requests().Create(ctx, req); err != nil {
		h.logger().ErrorContext(ctx, "rental request store create failed", "request_id", cmd.CommandID, "error", err)
		return nil, err
	}

	recorded := req.PendingEvents()
	req.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), recorded); err != nil {
		return nil, err
	}

	if owned {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &SubmitRentalRequestResult{RequestID: string(req.ID), Submitted: true}, nil
}

func (h *SubmitRentalRequestHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *SubmitRentalRequestHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *SubmitRentalRequestHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[SubmitRentalRequestCommand, *SubmitRentalRequestResult] = (*SubmitRentalRequestHandler)(nil)
var _ middleware.IdempotentCommand = SubmitRentalRequestCommand{}
var _ middleware.PropertyScoped = SubmitRentalRequestCommand{}
