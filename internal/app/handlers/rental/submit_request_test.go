package rental_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rentalapp "rentcore/internal/app/handlers/rental"
	domainlease "rentcore/internal/domain/lease"
	domainproperty "rentcore/internal/domain/property"
	domainrental "rentcore/internal/domain/rental"
	"rentcore/internal/domain/shared/daterange"
	"rentcore/internal/infra/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type world struct {
	properties *memory.PropertyRepository
	requests   *memory.RequestStore
	tenants    *memory.TenantStore
	factory    *memory.Factory
	outbox     *memory.Outbox
	submit     *rentalapp.SubmitRentalRequestHandler
	respond    *rentalapp.RespondToRequestHandler
	withdraw   *rentalapp.WithdrawRequestHandler
}

func newWorld(t *testing.T, today time.Time) *world {
	t.Helper()
	properties := memory.NewPropertyRepository()
	requests := memory.NewRequestStore()
	tenants := memory.NewTenantStore()
	factory := memory.NewFactory(
		properties,
		memory.NewBookingStore(),
		tenants,
		requests,
		memory.NewBlockedStore(),
	)
	box := memory.NewOutbox()
	now := func() time.Time { return today }
	nextTenant := 0
	return &world{
		properties: properties,
		requests:   requests,
		tenants:    tenants,
		factory:    factory,
		outbox:     box,
		submit:     &rentalapp.SubmitRentalRequestHandler{UoWFactory: factory, Outbox: box, Now: now},
		respond: &rentalapp.RespondToRequestHandler{
			UoWFactory: factory,
			Outbox:     box,
			Now:        now,
			IDGenerator: func() string {
				nextTenant++
				return fmt.Sprintf("tenant-%d", nextTenant)
			},
		},
		withdraw: &rentalapp.WithdrawRequestHandler{UoWFactory: factory, Outbox: box, Now: now},
	}
}

func (w *world) addProperty(t *testing.T, id string, mode domainproperty.RentalMode) {
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
	require.NoError(t, w.properties.Save(context.Background(), p))
}

func submitCmd(id, user string, start time.Time, months int) rentalapp.SubmitRentalRequestCommand {
	return rentalapp.SubmitRentalRequestCommand{
		CommandID:           id,
		PropertyID:          "prop-1",
		UserID:              user,
		Start:               start,
		End:                 start.AddDate(0, months, 0),
		LeaseDurationMonths: months,
	}
}

func TestSubmitRequestSucceeds(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)

	res, err := w.submit.Handle(context.Background(), submitCmd("req-1", "user-1", day(2024, 1, 1), 12))
	require.NoError(t, err)
	assert.True(t, res.Submitted)
	assert.Equal(t, "req-1", res.RequestID)

	staged := w.outbox.Staged()
	require.Len(t, staged, 1)
	assert.Equal(t, "rental.request_submitted", staged[0].Name)
}

func TestSubmitRequestRefusesDailyProperty(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeDaily)

	res, err := w.submit.Handle(context.Background(), submitCmd("req-1", "user-1", day(2024, 1, 1), 12))
	require.NoError(t, err)
	assert.False(t, res.Submitted)
	assert.Equal(t, "property is not offered for annual rental", res.Reason)
}

func TestSubmitRequestRefusesShortLease(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)

	start := day(2024, 1, 1)
	res, err := w.submit.Handle(context.Background(), rentalapp.SubmitRentalRequestCommand{
		CommandID: "req-1", PropertyID: "prop-1", UserID: "user-1",
		Start: start, End: start.AddDate(0, 0, 179), LeaseDurationMonths: 6,
	})
	require.NoError(t, err)
	assert.False(t, res.Submitted)
	assert.Equal(t, "lease must span at least 180 days", res.Reason)

	res, err = w.submit.Handle(context.Background(), rentalapp.SubmitRentalRequestCommand{
		CommandID: "req-2", PropertyID: "prop-1", UserID: "user-1",
		Start: start, End: start.AddDate(0, 0, 180), LeaseDurationMonths: 6,
	})
	require.NoError(t, err)
	assert.True(t, res.Submitted)
}

func TestSubmitRequestRefusesPendingOverlap(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)

	first, err := w.submit.Handle(context.Background(), submitCmd("req-1", "user-1", day(2024, 1, 1), 12))
	require.NoError(t, err)
	require.True(t, first.Submitted)

	second, err := w.submit.Handle(context.Background(), submitCmd("req-2", "user-2", day(2024, 6, 1), 12))
	require.NoError(t, err)
	assert.False(t, second.Submitted)
	assert.Equal(t, "a pending request already covers these dates", second.Reason)
}

func TestSubmitRequestRefusesActiveLeaseConflict(t *testing.T) {
	w := newWorld(t, day(2024, 6, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)

	seedActiveLease(t, w, "user-1", day(2024, 1, 1), 12)

	res, err := w.submit.Handle(context.Background(), submitCmd("req-2", "user-2", day(2025, 6, 1), 12))
	require.NoError(t, err)
	assert.False(t, res.Submitted)
	assert.Equal(t, "property has a conflicting commitment for these dates", res.Reason)

	staged := w.outbox.Staged()
	require.Len(t, staged, 1)
	assert.Equal(t, "availability.conflict_detected", staged[0].Name)
}

func TestConcurrentSubmissionsLeaveOnePending(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)

	ctx := context.Background()
	results := make([]*rentalapp.SubmitRentalRequestResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := submitCmd(fmt.Sprintf("req-%d", i), fmt.Sprintf("user-%d", i), day(2024, 1, 1), 12)
			results[i], errs[i] = w.submit.Handle(ctx, cmd)
		}(i)
	}
	wg.Wait()

	submitted := 0
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Submitted {
			submitted++
		}
	}
	assert.Equal(t, 1, submitted)

	proposed, err := daterange.New(day(2024, 1, 1), day(2025, 1, 1))
	require.NoError(t, err)
	pending, err := w.requests.FindPendingOverlapping(ctx, "prop-1", proposed)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

// seedActiveLease plants a tenant plus the approved request its end date is
// derived from, bypassing the handlers.
func seedActiveLease(t *testing.T, w *world, user string, start time.Time, months int) {
	t.Helper()
	ctx := context.Background()

	req, err := domainrental.New(domainrental.CreateParams{
		ID:                  domainrental.RequestID("seed-req-" + user),
		PropertyID:          "prop-1",
		UserID:              user,
		Start:               start,
		End:                 start.AddDate(0, months, 0),
		LeaseDurationMonths: months,
		Now:                 start.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	require.NoError(t, req.Approve("", start.AddDate(0, -1, 1)))
	req.ClearEvents()
	require.NoError(t, w.requests.Create(ctx, req))

	tenant, err := domainlease.NewTenant(domainlease.CreateParams{
		ID:         domainlease.TenantID("seed-tenant-" + user),
		UserID:     user,
		PropertyID: "prop-1",
		LeaseStart: start,
		RequestID:  string(req.ID),
		Now:        start,
	})
	require.NoError(t, err)
	tenant.ClearEvents()
	require.NoError(t, w.tenants.Create(ctx, tenant))
}
