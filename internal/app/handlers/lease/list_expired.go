package lease

import (
	"context"
	"log/slog"
	"time"

	"rentcore/internal/app/dto"
	"rentcore/internal/app/handlers/support"
	"rentcore/internal/app/queries"
	"rentcore/internal/app/uow"
)

const listExpiredKey = "lease.list_expired"

type ListExpiredQuery struct{}

func (q ListExpiredQuery) Key() string { return listExpiredKey }

// ListExpiredHandler reports active tenants whose derived lease end already
// passed. They stay active until deactivated; expiry is derived, never stored.
type ListExpiredHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ListExpiredHandler) Handle(ctx context.Context, q ListExpiredQuery) ([]dto.TenantSummary, error) {
	unit, owned, ctx, err := support.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if owned {
		defer unit.Rollback(ctx)
	}

	calc := support.Calculator(unit, h.Now)
	tenants, err := calc.ListExpired(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, calc, tenants)
}

var _ queries.Handler[ListExpiredQuery, []dto.TenantSummary] = (*ListExpiredHandler)(nil)
