package rental

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/handlers/support"
	"rentcore/internal/app/middleware"
	"rentcore/internal/app/outbox"
	"rentcore/internal/app/uow"
	domainrental "rentcore/internal/domain/rental"
)

const withdrawRequestKey = "rental.withdraw"

type WithdrawRequestCommand struct {
	RequestID       string `validate:"required"`
	UserID          string `validate:"required"`
	IdempotencyKeyV string
}

func (c WithdrawRequestCommand) Key() string { return withdrawRequestKey }

func (c WithdrawRequestCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c WithdrawRequestCommand) ResultPrototype() any { return &WithdrawRequestResult{} }

type WithdrawRequestResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status,omitempty"`
	Applied   bool   `json:"applied"`
	Reason    string `json:"reason,omitempty"`
}

// WithdrawRequestHandler lets the requesting tenant pull a pending request.
// Ownership is authenticated upstream; the user id here is a consistency
// check, not an access control.
type WithdrawRequestHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *WithdrawRequestHandler) Handle(ctx context.Context, cmd WithdrawRequestCommand) (*WithdrawRequestResult, error) {
	unit, owned, ctx, err := support.Acquire(ctx, h.UoWFactory, uow.TxOptions{})
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

	commit := func(res *WithdrawRequestResult) (*WithdrawRequestResult, error) {
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
			return commit(&WithdrawRequestResult{RequestID: cmd.RequestID, Reason: "request not found"})
		}
		return nil, err
	}
	if req.UserID != cmd.UserID {
		return commit(&WithdrawRequestResult{RequestID: cmd.RequestID, Status: string(req.Status), Reason: "request belongs to another user"})
	}

	if err := req.Withdraw(h.now()); err != nil {
		return commit(&WithdrawRequestResult{RequestID: cmd.RequestID, Status: string(req.Status), Reason: "request already resolved"})
	}
	if err := unit.Requests().Save(ctx, req); err != nil {
		return nil, err
	}
	pending := req.PendingEvents()
	req.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	return commit(&WithdrawRequestResult{RequestID: cmd.RequestID, Status: string(req.Status), Applied: true})
}

func (h *WithdrawRequestHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *WithdrawRequestHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[WithdrawRequestCommand, *WithdrawRequestResult] = (*WithdrawRequestHandler)(nil)
var _ middleware.IdempotentCommand = WithdrawRequestCommand{}
