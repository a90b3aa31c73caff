package rental_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rentalapp "rentcore/internal/app/handlers/rental"
	domainproperty "rentcore/internal/domain/property"
	domainrental "rentcore/internal/domain/rental"
)

func TestApproveMaterializesTenant(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)
	ctx := context.Background()

	submitted, err := w.submit.Handle(ctx, submitCmd("req-1", "user-1", day(2024, 1, 1), 12))
	require.NoError(t, err)
	require.True(t, submitted.Submitted)

	res, err := w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-1", Approved: true})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, string(domainrental.StatusApproved), res.Status)
	require.NotEmpty(t, res.TenantID)

	tenant, err := w.tenants.FindActiveByUserAndProperty(ctx, "user-1", "prop-1")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 1), tenant.LeaseStart)

	var names []string
	for _, rec := range w.outbox.Staged() {
		names = append(names, rec.Name)
	}
	assert.Contains(t, names, "rental.request_approved")
	assert.Contains(t, names, "lease.tenant_materialized")
}

func TestReapprovalIsIdempotent(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)
	ctx := context.Background()

	_, err := w.submit.Handle(ctx, submitCmd("req-1", "user-1", day(2024, 1, 1), 12))
	require.NoError(t, err)

	first, err := w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-1", Approved: true})
	require.NoError(t, err)
	second, err := w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-1", Approved: true})
	require.NoError(t, err)

	assert.True(t, second.Applied)
	assert.Equal(t, first.TenantID, second.TenantID)

	active, err := w.tenants.FindActiveByProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestRejectLeavesNoTenant(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)
	ctx := context.Background()

	_, err := w.submit.Handle(ctx, submitCmd("req-1", "user-1", day(2024, 1, 1), 12))
	require.NoError(t, err)

	res, err := w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-1", Approved: false, Note: "sorry"})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, string(domainrental.StatusRejected), res.Status)
	assert.Empty(t, res.TenantID)

	active, err := w.tenants.FindActiveByProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestApproveSecondRequestWhileLeaseActive(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)
	ctx := context.Background()

	// Two pending requests with disjoint ranges both survive submission:
	// neither is a conflict source until approved.
	first, err := w.submit.Handle(ctx, submitCmd("req-1", "user-1", day(2024, 1, 1), 6))
	require.NoError(t, err)
	require.True(t, first.Submitted)
	second, err := w.submit.Handle(ctx, submitCmd("req-2", "user-2", day(2024, 8, 1), 6))
	require.NoError(t, err)
	require.True(t, second.Submitted)

	approved, err := w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-1", Approved: true})
	require.NoError(t, err)
	require.True(t, approved.Applied)

	res, err := w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-2", Approved: true})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "property already has an active lease", res.Reason)

	active, err := w.tenants.FindActiveByProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	// The refused request stays pending so it can be approved once the
	// running lease ends.
	req, err := w.requests.ByID(ctx, "req-2")
	require.NoError(t, err)
	assert.Equal(t, domainrental.StatusPending, req.Status)
}

func TestApproveAfterPriorLeaseExpired(t *testing.T) {
	w := newWorld(t, day(2024, 8, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)
	ctx := context.Background()

	// user-1's lease ran 2024-01-01 to 2024-07-01 and is over.
	seedActiveLease(t, w, "user-1", day(2024, 1, 1), 6)

	submitted, err := w.submit.Handle(ctx, submitCmd("req-2", "user-2", day(2024, 9, 1), 6))
	require.NoError(t, err)
	require.True(t, submitted.Submitted)

	res, err := w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-2", Approved: true})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.NotEmpty(t, res.TenantID)
}

func TestRespondToUnknownRequest(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))

	res, err := w.respond.Handle(context.Background(), rentalapp.RespondToRequestCommand{RequestID: "missing", Approved: true})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "request not found", res.Reason)
}

func TestRejectAfterRejectIsRefused(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)
	ctx := context.Background()

	_, err := w.submit.Handle(ctx, submitCmd("req-1", "user-1", day(2024, 1, 1), 12))
	require.NoError(t, err)

	_, err = w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-1", Approved: false})
	require.NoError(t, err)

	res, err := w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-1", Approved: false})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "request already resolved", res.Reason)
}

func TestApproveAfterRejectIsRefused(t *testing.T) {
	w := newWorld(t, day(2023, 12, 1))
	w.addProperty(t, "prop-1", domainproperty.ModeMonthly)
	ctx := context.Background()

	_, err := w.submit.Handle(ctx, submitCmd("req-1", "user-1", day(2024, 1, 1), 12))
	require.NoError(t, err)

	_, err = w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-1", Approved: false})
	require.NoError(t, err)

	res, err := w.respond.Handle(ctx, rentalapp.RespondToRequestCommand{RequestID: "req-1", Approved: true})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "request already resolved", res.Reason)

	active, err := w.tenants.FindActiveByProperty(ctx, "prop-1")
	require.NoError(t, err)
	assert.Empty(t, active)
}
