package availability

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
	domainproperty "rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
	"rentcore/internal/domain/shared/events"
)

const blockPeriodKey = "availability.block_period"

type BlockPeriodCommand struct {
	CommandID       string
	PropertyID      string `validate:"required"`
	Start           time.Time
	End             time.Time
	Reason          string `validate:"required"`
	IdempotencyKeyV string
}

func (c BlockPeriodCommand) Key() string { return blockPeriodKey }

func (c BlockPeriodCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c BlockPeriodCommand) ResultPrototype() any { return &BlockPeriodResult{} }

func (c BlockPeriodCommand) PropertyScope() string { return c.PropertyID }

type BlockPeriodResult struct {
	BlockID string `json:"block_id,omitempty"`
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

// BlockPeriodHandler records a landlord-imposed blackout. Blocks stack over
// bookings and leases, so no availability check runs first.
type BlockPeriodHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *BlockPeriodHandler) Handle(ctx context.Context, cmd BlockPeriodCommand) (*BlockPeriodResult, error) {
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

	refuse := func(reason string) (*BlockPeriodResult, error) {
		res := &BlockPeriodResult{Reason: reason}
		if owned {
			if err := unit.Commit(ctx); err != nil {
				return nil, err
			}
			committed = true
		}
		return res, nil
	}

	dr, err := daterange.New(daterange.Day(cmd.Start), daterange.Day(cmd.End))
	if err != nil {
		return refuse(err.Error())
	}

	block, err := domainavailability.NewBlockedPeriod(
		domainavailability.BlockedPeriodID(cmd.CommandID),
		domainproperty.PropertyID(cmd.PropertyID),
		dr,
		cmd.Reason,
		h.now(),
	)
	if err != nil {
		return refuse(err.Error())
	}
	if err := unit.Blocked().Create(ctx, block); err != nil {
		h.logger().ErrorContext(ctx, "blocked period store create failed", "block_id", cmd.CommandID, "error", err)
		return nil, err
	}

	ev := domainavailability.PeriodBlocked{
		BlockID:    block.ID,
		PropertyID: block.PropertyID,
		Range:      block.Range,
		Reason:     block.Reason,
		At:         block.CreatedAt,
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{ev}); err != nil {
		return nil, err
	}

	if owned {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &BlockPeriodResult{BlockID: string(block.ID), Blocked: true}, nil
}

func (h *BlockPeriodHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *BlockPeriodHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *BlockPeriodHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[BlockPeriodCommand, *BlockPeriodResult] = (*BlockPeriodHandler)(nil)
var _ middleware.IdempotentCommand = BlockPeriodCommand{}
var _ middleware.PropertyScoped = BlockPeriodCommand{}
