package rental

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/handlers/support"
	"rentcore/internal/app/middleware"
	"rentcore/internal/app/outbox"
	"rentcore/internal/app/uow"
	domainlease "rentcore/internal/domain/lease"
	domainrental "rentcore/internal/domain/rental"
	"rentcore/internal/domain/shared/daterange"
)

const respondRequestKey = "rental.respond"

type RespondToRequestCommand struct {
	RequestID       string `validate:"required"`
	Approved        bool
	Note            string
	IdempotencyKeyV string
}

func (c RespondToRequestCommand) Key() string { return respondRequestKey }

func (c RespondToRequestCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RespondToRequestCommand) ResultPrototype() any { return &RespondToRequestResult{} }

type RespondToRequestResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	TenantID  string `json:"tenant_id,omitempty"`
	Applied   bool   `json:"applied"`
	Reason    string `json:"reason,omitempty"`
}

// RespondToRequestHandler resolves a pending request. Approval re-checks the
// property's lease state and materializes the tenant record inside the same
// unit of work: a property hosts at most one concurrent tenant, so a second
// request cannot be approved while another user's lease is still running,
// even when the proposed ranges never overlap. Re-approving an already
// approved request is a successful no-op and never yields a second tenant.
type RespondToRequestHandler struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Logger      *slog.Logger
	Now         func() time.Time
	IDGenerator func() string
}

func (h *RespondToRequestHandler) Handle(ctx context.Context, cmd RespondToRequestCommand) (*RespondToRequestResult, error) {
	opts := uow.TxOptions{}
	if _, ok := uow.FromContext(ctx); !ok {
		// The command carries no property id, so resolve the scope from the
		// request before taking the write lock. A miss falls through to the
		// not-found path inside the unit.
		scope, err := h.propertyScope(ctx, cmd.RequestID)
		if err != nil {
			return nil, err
		}
		opts.Property = scope
	}
	unit, owned, ctx, err := support.Acquire(ctx, h.UoWFactory, opts)
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

	commit := func(res *RespondToRequestResult) (*RespondToRequestResult, error) {
		if owned {
			if err := unit.Commit(ctx); err != nil {
				return nil, err
			}
			committed = true
		}
		return res, nil
	}

	req, err := unit.Requests().ByID(ctx, domainrental.RequestID(cmd.RequestID))
	if err != nil {
		if errors.Is(err, domainrental.ErrRequestNotFound) {
			return commit(&RespondToRequestResult{RequestID: cmd.RequestID, Reason: "request not found"})
		}
		return nil, err
	}

	now := h.now()
	result := &RespondToRequestResult{RequestID: cmd.RequestID}

	if !cmd.Approved {
		if err := req.Reject(cmd.Note, now); err != nil {
			result.Status = string(req.Status)
			result.Reason = "request already resolved"
			return commit(result)
		}
		if err := unit.Requests().Save(ctx, req); err != nil {
			return nil, err
		}
		if err := h.drainEvents(ctx, req); err != nil {
			return nil, err
		}
		result.Status = string(req.Status)
		result.Applied = true
		return commit(result)
	}

	switch req.Status {
	case domainrental.StatusPending:
		free, err := h.leaseSlotFree(ctx, unit, req)
		if err != nil {
			return nil, err
		}
		if !free {
			result.Status = string(req.Status)
			result.Reason = "property already has an active lease"
			return commit(result)
		}
		if err := req.Approve(cmd.Note, now); err != nil {
			return nil, err
		}
		if err := unit.Requests().Save(ctx, req); err != nil {
			return nil, err
		}
	case domainrental.StatusApproved:
		// Re-approval: ensure the tenant exists, nothing else.
	default:
		result.Status = string(req.Status)
		result.Reason = "request already resolved"
		return commit(result)
	}

	tenantID, err := h.materializeTenant(ctx, unit, req, now)
	if err != nil {
		return nil, err
	}
	if err := h.drainEvents(ctx, req); err != nil {
		return nil, err
	}

	result.Status = string(domainrental.StatusApproved)
	result.TenantID = tenantID
	result.Applied = true
	return commit(result)
}

// propertyScope looks up the request's property so the write unit serializes
// with the other commands touching that property. An unknown request yields
// an empty scope.
func (h *RespondToRequestHandler) propertyScope(ctx context.Context, requestID string) (string, error) {
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return "", err
	}
	defer unit.Rollback(ctx)

	req, err := unit.Requests().ByID(ctx, domainrental.RequestID(requestID))
	if err != nil {
		if errors.Is(err, domainrental.ErrRequestNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(req.PropertyID), nil
}

// leaseSlotFree reports whether no other user's lease on the property is
// still running. Expired leases free the slot; an underivable lease end
// counts as running.
func (h *RespondToRequestHandler) leaseSlotFree(ctx context.Context, unit uow.UnitOfWork, req *domainrental.Request) (bool, error) {
	tenants, err := unit.Tenants().FindActiveByProperty(ctx, req.PropertyID)
	if err != nil {
		return false, err
	}
	if len(tenants) == 0 {
		return true, nil
	}
	calc := support.Calculator(unit, h.Now)
	today := daterange.Day(h.now())
	for _, t := range tenants {
		if t.UserID == req.UserID {
			continue
		}
		end, known, err := calc.DeriveLeaseEnd(ctx, t)
		if err != nil {
			return false, err
		}
		if !known || end.After(today) {
			return false, nil
		}
	}
	return true, nil
}

// materializeTenant creates the lease record for an approved request unless
// an active tenant already exists for the same user and property.
func (h *RespondToRequestHandler) materializeTenant(ctx context.Context, unit uow.UnitOfWork, req *domainrental.Request, now time.Time) (string, error) {
	existing, err := unit.Tenants().FindActiveByUserAndProperty(ctx, req.UserID, req.PropertyID)
	if err == nil {
		return string(existing.ID), nil
	}
	if !errors.Is(err, domainlease.ErrTenantNotFound) {
		return "", err
	}

	tenant, err := domainlease.NewTenant(domainlease.CreateParams{
		ID:         domainlease.TenantID(h.generateID()),
		UserID:     req.UserID,
		PropertyID: req.PropertyID,
		LeaseStart: req.Start,
		RequestID:  string(req.ID),
		Now:        now,
	})
	if err != nil {
		return "", err
	}
	if err := unit.Tenants().Create(ctx, tenant); err != nil {
		return "", err
	}
	pending := tenant.PendingEvents()
	tenant.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return "", err
	}
	return string(tenant.ID), nil
}

func (h *RespondToRequestHandler) drainEvents(ctx context.Context, req *domainrental.Request) error {
	pending := req.PendingEvents()
	req.ClearEvents()
	return outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending)
}

func (h *RespondToRequestHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RespondToRequestHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *RespondToRequestHandler) generateID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

var _ commands.Handler[RespondToRequestCommand, *RespondToRequestResult] = (*RespondToRequestHandler)(nil)
var _ middleware.IdempotentCommand = RespondToRequestCommand{}
