package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type unitKey struct{}

// ContextWithUnitOfWork makes a unit ambient for the rest of the dispatch.
// The transaction middleware stores its unit here so a command handler and
// any handler it invokes share one check-then-write scope.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// FromContext retrieves the ambient unit of work, if any. Handlers that find
// one join it instead of beginning their own.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(unitKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}
