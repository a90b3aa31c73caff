package middleware

import (
	"context"
	"errors"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/uow"
)

var ErrUnitOfWorkMissing = errors.New("middleware: unit of work not found")

// TxOptionsProvider derives transaction options from the command, letting
// commands scope the unit of work to the property they mutate.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// PropertyScoped is implemented by commands bound to a single property; the
// factory serializes check-then-write units on this scope.
type PropertyScoped interface {
	PropertyScope() string
}

// DefaultTxOptions scopes the unit of work to the command's property when the
// command declares one.
func DefaultTxOptions(cmd commands.Command) uow.TxOptions {
	opts := uow.TxOptions{}
	if scoped, ok := cmd.(PropertyScoped); ok {
		opts.Property = scoped.PropertyScope()
	}
	return opts
}

func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	if optsProvider == nil {
		optsProvider = DefaultTxOptions
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			unit, err := factory.Begin(ctx, optsProvider(cmd))
			if err != nil {
				return nil, err
			}
			execCtx := ctx
			if injector, ok := unit.(interface {
				InjectContext(context.Context) context.Context
			}); ok {
				execCtx = injector.InjectContext(ctx)
			}
			execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}
