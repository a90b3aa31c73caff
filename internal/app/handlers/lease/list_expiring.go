package lease

import (
	"context"
	"log/slog"
	"time"

	"rentcore/internal/app/dto"
	"rentcore/internal/app/handlers/support"
	"rentcore/internal/app/queries"
	"rentcore/internal/app/uow"
	domainlease "rentcore/internal/domain/lease"
)

const listExpiringKey = "lease.list_expiring"

type ListExpiringQuery struct {
	DaysAhead int `validate:"gte=0"`
}

func (q ListExpiringQuery) Key() string { return listExpiringKey }

// ListExpiringHandler reports active tenants whose derived lease end falls
// within the requested window.
type ListExpiringHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ListExpiringHandler) Handle(ctx context.Context, q ListExpiringQuery) ([]dto.TenantSummary, error) {
	unit, owned, ctx, err := support.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	if owned {
		defer unit.Rollback(ctx)
	}

	calc := support.Calculator(unit, h.Now)
	tenants, err := calc.ListExpiring(ctx, q.DaysAhead)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, calc, tenants)
}

// summarize derives each tenant's lease end and remaining days for rendering.
// ListExpiring and ListExpired only return tenants with derivable ends, so the
// unknown branch of MapTenant is not hit here.
func summarize(ctx context.Context, calc *domainlease.Calculator, tenants []*domainlease.Tenant) ([]dto.TenantSummary, error) {
	out := make([]dto.TenantSummary, 0, len(tenants))
	for _, t := range tenants {
		end, known, err := calc.DeriveLeaseEnd(ctx, t)
		if err != nil {
			return nil, err
		}
		remaining := 0
		if known {
			remaining, _, err = calc.RemainingDays(ctx, t.ID)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, dto.MapTenant(t, end, known, remaining))
	}
	return out, nil
}

var _ queries.Handler[ListExpiringQuery, []dto.TenantSummary] = (*ListExpiringHandler)(nil)
