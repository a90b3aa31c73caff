package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcore/internal/app/commands"
	"rentcore/internal/app/middleware"
	"rentcore/internal/infra/storage/memory"
	"rentcore/internal/infra/validate"
)

type echoCommand struct {
	Value string `validate:"required"`
	IdKey string
}

func (c echoCommand) Key() string            { return "test.echo" }
func (c echoCommand) IdempotencyKey() string { return c.IdKey }
func (c echoCommand) ResultPrototype() any   { return &echoResult{} }

type echoResult struct {
	Value string `json:"value"`
	Calls int    `json:"calls"`
}

func newEchoBus(calls *int) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[echoCommand, *echoResult](bus, "test.echo",
		commands.HandlerFunc[echoCommand, *echoResult](func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			*calls++
			return &echoResult{Value: cmd.Value, Calls: *calls}, nil
		}))
	return bus
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	ctx := context.Background()
	calls := 0
	bus := middleware.ChainCommands(newEchoBus(&calls), middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	first, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "hello", IdKey: "k-1"})
	require.NoError(t, err)
	second, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "hello", IdKey: "k-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Calls, second.Calls)
}

func TestIdempotencySkipsCommandsWithoutKey(t *testing.T) {
	ctx := context.Background()
	calls := 0
	bus := middleware.ChainCommands(newEchoBus(&calls), middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	_, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "hello"})
	require.NoError(t, err)
	_, err = commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "hello"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestIdempotencyReplaysErrors(t *testing.T) {
	ctx := context.Background()
	calls := 0
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[echoCommand, *echoResult](bus, "test.echo",
		commands.HandlerFunc[echoCommand, *echoResult](func(ctx context.Context, cmd echoCommand) (*echoResult, error) {
			calls++
			return nil, errors.New("boom")
		}))
	chained := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(), nil))

	_, err := commands.Dispatch[echoCommand, *echoResult](ctx, chained, echoCommand{Value: "hello", IdKey: "k-1"})
	require.EqualError(t, err, "boom")
	_, err = commands.Dispatch[echoCommand, *echoResult](ctx, chained, echoCommand{Value: "hello", IdKey: "k-1"})
	require.EqualError(t, err, "boom")

	assert.Equal(t, 1, calls)
}

func TestValidationRejectsBeforeHandler(t *testing.T) {
	ctx := context.Background()
	calls := 0
	bus := middleware.ChainCommands(newEchoBus(&calls), middleware.Validation(validate.New()))

	_, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{})
	require.Error(t, err)
	assert.Equal(t, 0, calls)

	res, err := commands.Dispatch[echoCommand, *echoResult](ctx, bus, echoCommand{Value: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Value)
}
