package availability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcore/internal/domain/availability"
	"rentcore/internal/domain/booking"
	"rentcore/internal/domain/lease"
	"rentcore/internal/domain/property"
	"rentcore/internal/domain/rental"
	"rentcore/internal/domain/shared/daterange"
	"rentcore/internal/infra/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(start, end)
	require.NoError(t, err)
	return dr
}

type world struct {
	properties *memory.PropertyRepository
	bookings   *memory.BookingStore
	tenants    *memory.TenantStore
	requests   *memory.RequestStore
	blocked    *memory.BlockedStore
	engine     *availability.Engine
}

func newWorld(t *testing.T, today time.Time) *world {
	t.Helper()
	w := &world{
		properties: memory.NewPropertyRepository(),
		bookings:   memory.NewBookingStore(),
		tenants:    memory.NewTenantStore(),
		requests:   memory.NewRequestStore(),
		blocked:    memory.NewBlockedStore(),
	}
	now := func() time.Time { return today }
	w.engine = &availability.Engine{
		Properties: w.properties,
		Bookings:   w.bookings,
		Tenants:    w.tenants,
		Requests:   w.requests,
		Blocked:    w.blocked,
		Leases:     lease.NewCalculator(w.tenants, w.requests, now),
		Now:        now,
	}
	return w
}

func (w *world) addProperty(t *testing.T, id string, mode property.RentalMode) {
	t.Helper()
	p, err := property.New(property.CreateParams{
		ID:       property.PropertyID(id),
		Landlord: "landlord-1",
		Title:    "test property",
		Address:  property.Address{Line1: "1 Main St", City: "Springfield", Country: "US"},
		Mode:     mode,
		Now:      day(2023, 1, 1),
	})
	require.NoError(t, err)
	require.NoError(t, w.properties.Save(context.Background(), p))
}

func (w *world) addBooking(t *testing.T, id string, start time.Time, end *time.Time) {
	t.Helper()
	b, err := booking.New(booking.CreateParams{
		ID:         booking.BookingID(id),
		PropertyID: "prop-1",
		GuestID:    "guest-1",
		Start:      start,
		End:        end,
		Now:        start.AddDate(0, 0, -30),
	})
	require.NoError(t, err)
	require.NoError(t, w.bookings.Create(context.Background(), b))
}

func (w *world) addTenant(t *testing.T, id, user string, start time.Time) {
	t.Helper()
	tenant, err := lease.NewTenant(lease.CreateParams{
		ID:         lease.TenantID(id),
		UserID:     user,
		PropertyID: "prop-1",
		LeaseStart: start,
		Now:        start,
	})
	require.NoError(t, err)
	require.NoError(t, w.tenants.Create(context.Background(), tenant))
}

func (w *world) addApproved(t *testing.T, id, user string, start time.Time, months int) {
	t.Helper()
	req, err := rental.New(rental.CreateParams{
		ID:                  rental.RequestID(id),
		PropertyID:          "prop-1",
		UserID:              user,
		Start:               start,
		End:                 start.AddDate(0, months, 0),
		LeaseDurationMonths: months,
		Now:                 start.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	require.NoError(t, req.Approve("", start.AddDate(0, -1, 1)))
	require.NoError(t, w.requests.Create(context.Background(), req))
}

func TestBookingConflictHonorsHalfOpenBoundary(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))
	w.addProperty(t, "prop-1", property.ModeDaily)

	end := day(2024, 3, 10)
	w.addBooking(t, "b-1", day(2024, 3, 1), &end)

	// A stay starting the day the booking ends does not collide.
	assert.True(t, w.engine.IsAvailableForDaily(ctx, "prop-1", mustRange(t, day(2024, 3, 10), day(2024, 3, 15))))

	// One day earlier and it does.
	conflicts, err := w.engine.Conflicts(ctx, "prop-1", mustRange(t, day(2024, 3, 9), day(2024, 3, 15)))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, availability.ConflictBooking, conflicts[0].Type)
	assert.Equal(t, "b-1", conflicts[0].SourceID)
}

func TestCancelledBookingsDoNotConflict(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))
	w.addProperty(t, "prop-1", property.ModeDaily)

	end := day(2024, 3, 10)
	w.addBooking(t, "b-1", day(2024, 3, 1), &end)
	b, err := w.bookings.ByID(ctx, "b-1")
	require.NoError(t, err)
	require.NoError(t, b.Cancel("guest request", day(2024, 2, 1)))
	require.NoError(t, w.bookings.Save(ctx, b))

	assert.True(t, w.engine.IsAvailableForDaily(ctx, "prop-1", mustRange(t, day(2024, 3, 1), day(2024, 3, 10))))
}

func TestOpenEndedBookingOccupiesOneNight(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))
	w.addProperty(t, "prop-1", property.ModeDaily)

	w.addBooking(t, "b-open", day(2024, 3, 1), nil)

	conflicts, err := w.engine.Conflicts(ctx, "prop-1", mustRange(t, day(2024, 3, 1), day(2024, 3, 2)))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)

	// The night after is free.
	assert.True(t, w.engine.IsAvailableForDaily(ctx, "prop-1", mustRange(t, day(2024, 3, 2), day(2024, 3, 5))))
}

func TestModeExclusivity(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))
	w.addProperty(t, "prop-1", property.ModeDaily)
	w.addProperty(t, "prop-2", property.ModeMonthly)
	r := mustRange(t, day(2024, 3, 1), day(2024, 3, 10))

	assert.True(t, w.engine.IsAvailableForDaily(ctx, "prop-1", r))
	assert.False(t, w.engine.IsAvailableForAnnual(ctx, "prop-1", r))
	assert.False(t, w.engine.IsAvailableForDaily(ctx, "prop-2", r))
	assert.True(t, w.engine.IsAvailableForAnnual(ctx, "prop-2", r))
}

func TestUnexpiredLeaseBlocksAnnualForAnyRange(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 6, 1))
	w.addProperty(t, "prop-1", property.ModeMonthly)

	w.addTenant(t, "t-1", "user-1", day(2024, 1, 1))
	w.addApproved(t, "req-1", "user-1", day(2024, 1, 1), 12)

	// Even a range entirely after the derived end conflicts while the lease
	// is still running.
	future := mustRange(t, day(2025, 6, 1), day(2026, 6, 1))
	assert.False(t, w.engine.IsAvailableForAnnual(ctx, "prop-1", future))

	conflicts, err := w.engine.Conflicts(ctx, "prop-1", future)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, availability.ConflictLease, conflicts[0].Type)
}

func TestExpiredLeaseFreesTheProperty(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2025, 2, 1))
	w.addProperty(t, "prop-1", property.ModeMonthly)

	// Lease 2024-01-01 + 12 months, derived end 2025-01-01, already past.
	w.addTenant(t, "t-1", "user-1", day(2024, 1, 1))
	w.addApproved(t, "req-1", "user-1", day(2024, 1, 1), 12)

	after := mustRange(t, day(2025, 2, 1), day(2026, 2, 1))
	assert.True(t, w.engine.IsAvailableForAnnual(ctx, "prop-1", after))

	// A range overlapping the historical lease still reports it.
	during := mustRange(t, day(2024, 6, 1), day(2024, 7, 1))
	conflicts, err := w.engine.Conflicts(ctx, "prop-1", during)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
}

func TestUnknownLeaseEndFailsSafe(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 6, 1))
	w.addProperty(t, "prop-1", property.ModeMonthly)
	w.addTenant(t, "t-1", "user-1", day(2024, 1, 1))
	// No approved request: the lease end cannot be derived.

	anyRange := mustRange(t, day(2030, 1, 1), day(2030, 2, 1))
	conflicts, err := w.engine.Conflicts(ctx, "prop-1", anyRange)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "active lease (end date unknown)", conflicts[0].Description)
	assert.False(t, w.engine.IsAvailableForAnnual(ctx, "prop-1", anyRange))
}

func TestApprovedRequestConflictsUntilTenantExists(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))
	w.addProperty(t, "prop-1", property.ModeMonthly)
	w.addApproved(t, "req-1", "user-1", day(2024, 3, 1), 12)

	r := mustRange(t, day(2024, 6, 1), day(2024, 7, 1))
	conflicts, err := w.engine.Conflicts(ctx, "prop-1", r)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "approved rental request", conflicts[0].Description)

	// Once the tenant is materialized the same commitment is reported once,
	// through the tenant record.
	w.addTenant(t, "t-1", "user-1", day(2024, 3, 1))
	conflicts, err = w.engine.Conflicts(ctx, "prop-1", r)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "active lease", conflicts[0].Description)
}

func TestBlockedPeriodConflictsInBothModes(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))
	w.addProperty(t, "prop-1", property.ModeDaily)

	bp, err := availability.NewBlockedPeriod("blk-1", "prop-1", mustRange(t, day(2024, 3, 1), day(2024, 3, 15)), "renovation", day(2024, 1, 1))
	require.NoError(t, err)
	require.NoError(t, w.blocked.Create(ctx, bp))

	conflicts, err := w.engine.Conflicts(ctx, "prop-1", mustRange(t, day(2024, 3, 10), day(2024, 3, 20)))
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, availability.ConflictBlocked, conflicts[0].Type)
	assert.Equal(t, "renovation", conflicts[0].Description)
}

func TestConflictsSortedByStart(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))
	w.addProperty(t, "prop-1", property.ModeDaily)

	endLate := day(2024, 3, 25)
	w.addBooking(t, "b-late", day(2024, 3, 20), &endLate)
	endEarly := day(2024, 3, 5)
	w.addBooking(t, "b-early", day(2024, 3, 1), &endEarly)

	bp, err := availability.NewBlockedPeriod("blk-1", "prop-1", mustRange(t, day(2024, 3, 8), day(2024, 3, 12)), "maintenance", day(2024, 1, 1))
	require.NoError(t, err)
	require.NoError(t, w.blocked.Create(ctx, bp))

	conflicts, err := w.engine.Conflicts(ctx, "prop-1", mustRange(t, day(2024, 3, 1), day(2024, 4, 1)))
	require.NoError(t, err)
	require.Len(t, conflicts, 3)
	assert.Equal(t, "b-early", conflicts[0].SourceID)
	assert.Equal(t, "blk-1", conflicts[1].SourceID)
	assert.Equal(t, "b-late", conflicts[2].SourceID)
}

func TestBooleanChecksAgreeWithConflicts(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))
	w.addProperty(t, "prop-1", property.ModeDaily)

	end := day(2024, 3, 10)
	w.addBooking(t, "b-1", day(2024, 3, 1), &end)

	ranges := []daterange.DateRange{
		mustRange(t, day(2024, 2, 1), day(2024, 2, 10)),
		mustRange(t, day(2024, 3, 5), day(2024, 3, 6)),
		mustRange(t, day(2024, 3, 10), day(2024, 3, 20)),
	}
	for _, r := range ranges {
		conflicts, err := w.engine.Conflicts(ctx, "prop-1", r)
		require.NoError(t, err)
		assert.Equal(t, len(conflicts) == 0, w.engine.IsAvailableForDaily(ctx, "prop-1", r), r.String())
	}
}

type failingBookingStore struct {
	booking.Store
}

func (failingBookingStore) FindOverlapping(context.Context, property.PropertyID, daterange.DateRange) ([]*booking.Booking, error) {
	return nil, errors.New("store offline")
}

func TestCollaboratorFailureFailsClosed(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))
	w.addProperty(t, "prop-1", property.ModeDaily)
	w.engine.Bookings = failingBookingStore{}

	r := mustRange(t, day(2024, 3, 1), day(2024, 3, 10))
	assert.False(t, w.engine.IsAvailableForDaily(ctx, "prop-1", r))

	_, err := w.engine.Conflicts(ctx, "prop-1", r)
	assert.Error(t, err)
}

func TestUnknownPropertyFailsClosed(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, day(2024, 1, 1))

	r := mustRange(t, day(2024, 3, 1), day(2024, 3, 10))
	assert.False(t, w.engine.IsAvailableForDaily(ctx, "missing", r))
	assert.False(t, w.engine.IsAvailableForAnnual(ctx, "missing", r))
}
