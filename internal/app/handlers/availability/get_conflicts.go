package availability

import (
	"context"
	"log/slog"
	"time"

	"rentcore/internal/app/dto"
	"rentcore/internal/app/handlers/support"
	"rentcore/internal/app/queries"
	"rentcore/internal/app/uow"
	domainproperty "rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
)

const getConflictsKey = "availability.conflicts"

type GetConflictsQuery struct {
	PropertyID string
	From       time.Time
	To         time.Time
}

func (q GetConflictsQuery) Key() string { return getConflictsKey }

// GetConflictsHandler returns the raw conflict list for diagnostics and rich
// UI feedback. Unlike the boolean check, collaborator failures propagate.
type GetConflictsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *GetConflictsHandler) Handle(ctx context.Context, q GetConflictsQuery) ([]dto.Conflict, error) {
	dr, err := daterange.New(daterange.Day(q.From), daterange.Day(q.To))
	if err != nil {
		return nil, err
	}

	unit, owned, ctx, err := support.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if owned {
		defer unit.Rollback(ctx)
	}

	engine := support.Engine(unit, h.Logger, h.Now)
	conflicts, err := engine.Conflicts(ctx, domainproperty.PropertyID(q.PropertyID), dr)
	if err != nil {
		return nil, err
	}
	return dto.MapConflicts(conflicts), nil
}

var _ queries.Handler[GetConflictsQuery, []dto.Conflict] = (*GetConflictsHandler)(nil)
