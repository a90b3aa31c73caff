package support

import (
	"context"
	"log/slog"
	"time"

	"rentcore/internal/app/uow"
	domainavailability "rentcore/internal/domain/availability"
	domainlease "rentcore/internal/domain/lease"
)

// Acquire returns the ambient unit of work or starts a new one from the
// factory. The boolean reports ownership: callers that own the unit must
// commit or roll it back themselves.
func Acquire(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions) (uow.UnitOfWork, bool, context.Context, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, false, ctx, nil
	}
	if factory == nil {
		return nil, false, ctx, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, false, ctx, err
	}
	return unit, true, uow.ContextWithUnitOfWork(ctx, unit), nil
}

// Calculator builds the lease calculator over a unit's stores.
func Calculator(unit uow.UnitOfWork, now func() time.Time) *domainlease.Calculator {
	return domainlease.NewCalculator(unit.Tenants(), unit.Requests(), now)
}

// Engine builds the availability engine over a unit's stores.
func Engine(unit uow.UnitOfWork, logger *slog.Logger, now func() time.Time) *domainavailability.Engine {
	return &domainavailability.Engine{
		Properties: unit.Properties(),
		Bookings:   unit.Bookings(),
		Tenants:    unit.Tenants(),
		Requests:   unit.Requests(),
		Blocked:    unit.Blocked(),
		Leases:     Calculator(unit, now),
		Logger:     logger,
		Now:        now,
	}
}
