package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingapp "rentcore/internal/app/handlers/booking"
	domainproperty "rentcore/internal/domain/property"
	"rentcore/internal/infra/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type harness struct {
	properties *memory.PropertyRepository
	factory    *memory.Factory
	outbox     *memory.Outbox
	handler    *bookingapp.CreateDailyBookingHandler
}

func newHarness(t *testing.T, today time.Time) *harness {
	t.Helper()
	properties := memory.NewPropertyRepository()
	factory := memory.NewFactory(
		properties,
		memory.NewBookingStore(),
		memory.NewTenantStore(),
		memory.NewRequestStore(),
		memory.NewBlockedStore(),
	)
	box := memory.NewOutbox()
	return &harness{
		properties: properties,
		factory:    factory,
		outbox:     box,
		handler: &bookingapp.CreateDailyBookingHandler{
			UoWFactory: factory,
			Outbox:     box,
			Now:        func() time.Time { return today },
		},
	}
}

func (h *harness) addProperty(t *testing.T, id string, mode domainproperty.RentalMode) {
	t.Helper()
	p, err := domainproperty.New(domainproperty.CreateParams{
		ID:       domainproperty.PropertyID(id),
		Landlord: "landlord-1",
		Title:    "test property",
		Address:  domainproperty.Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
		Mode:     mode,
		Now:      day(2023, 1, 1),
	})
	require.NoError(t, err)
	require.NoError(t, h.properties.Save(context.Background(), p))
}

func TestCreateBookingSucceedsWhenFree(t *testing.T) {
	h := newHarness(t, day(2024, 1, 1))
	h.addProperty(t, "prop-1", domainproperty.ModeDaily)

	end := day(2024, 3, 10)
	res, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID:  "b-1",
		PropertyID: "prop-1",
		GuestID:    "guest-1",
		Start:      day(2024, 3, 1),
		End:        &end,
		Guests:     2,
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "b-1", res.BookingID)

	staged := h.outbox.Staged()
	require.Len(t, staged, 1)
	assert.Equal(t, "booking.created", staged[0].Name)
}

func TestCreateBookingRefusesMonthlyProperty(t *testing.T) {
	h := newHarness(t, day(2024, 1, 1))
	h.addProperty(t, "prop-1", domainproperty.ModeMonthly)

	end := day(2024, 3, 10)
	res, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID:  "b-1",
		PropertyID: "prop-1",
		GuestID:    "guest-1",
		Start:      day(2024, 3, 1),
		End:        &end,
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "property is not offered for daily rental", res.Reason)
}

func TestCreateBookingRefusesConflictingDates(t *testing.T) {
	h := newHarness(t, day(2024, 1, 1))
	h.addProperty(t, "prop-1", domainproperty.ModeDaily)

	end := day(2024, 3, 10)
	first, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID: "b-1", PropertyID: "prop-1", GuestID: "guest-1", Start: day(2024, 3, 1), End: &end,
	})
	require.NoError(t, err)
	require.True(t, first.Created)

	overlapEnd := day(2024, 3, 12)
	second, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID: "b-2", PropertyID: "prop-1", GuestID: "guest-2", Start: day(2024, 3, 5), End: &overlapEnd,
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, "property is not available for the requested dates", second.Reason)

	// Refusal stages a conflict event for observers.
	staged := h.outbox.Staged()
	require.Len(t, staged, 2)
	assert.Equal(t, "availability.conflict_detected", staged[1].Name)
}

func TestCreateBookingBackToBackIsAllowed(t *testing.T) {
	h := newHarness(t, day(2024, 1, 1))
	h.addProperty(t, "prop-1", domainproperty.ModeDaily)

	end := day(2024, 3, 10)
	_, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID: "b-1", PropertyID: "prop-1", GuestID: "guest-1", Start: day(2024, 3, 1), End: &end,
	})
	require.NoError(t, err)

	nextEnd := day(2024, 3, 15)
	res, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID: "b-2", PropertyID: "prop-1", GuestID: "guest-2", Start: day(2024, 3, 10), End: &nextEnd,
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestCreateBookingOpenEndedTakesOneNight(t *testing.T) {
	h := newHarness(t, day(2024, 1, 1))
	h.addProperty(t, "prop-1", domainproperty.ModeDaily)

	open, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID: "b-open", PropertyID: "prop-1", GuestID: "guest-1", Start: day(2024, 3, 1),
	})
	require.NoError(t, err)
	require.True(t, open.Created)

	// The night itself is taken.
	sameNightEnd := day(2024, 3, 2)
	taken, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID: "b-2", PropertyID: "prop-1", GuestID: "guest-2", Start: day(2024, 3, 1), End: &sameNightEnd,
	})
	require.NoError(t, err)
	assert.False(t, taken.Created)

	// The next night is free.
	nextEnd := day(2024, 3, 5)
	free, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID: "b-3", PropertyID: "prop-1", GuestID: "guest-3", Start: day(2024, 3, 2), End: &nextEnd,
	})
	require.NoError(t, err)
	assert.True(t, free.Created)
}

func TestCreateBookingUnknownPropertyFailsClosed(t *testing.T) {
	h := newHarness(t, day(2024, 1, 1))

	res, err := h.handler.Handle(context.Background(), bookingapp.CreateDailyBookingCommand{
		CommandID: "b-1", PropertyID: "missing", GuestID: "guest-1", Start: day(2024, 3, 1),
	})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "booking could not be created", res.Reason)
}
