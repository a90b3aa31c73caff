package lease

import (
	"context"
	"errors"
	"time"

	"rentcore/internal/domain/rental"
	"rentcore/internal/domain/shared/daterange"
)

// MinLeaseDays is the single gate on minimum lease length.
const MinLeaseDays = 180

// IsValidLeaseDuration reports whether [start, end) spans at least the
// minimum lease length. It is checked before a rental request may enter
// PENDING.
func IsValidLeaseDuration(start, end time.Time) bool {
	dr, err := daterange.New(daterange.Day(start), daterange.Day(end))
	if err != nil {
		return false
	}
	return dr.Days() >= MinLeaseDays
}

// Calculator derives lease expiry from tenant records and their approved
// rental requests. It is a leaf service: nothing here depends on the
// availability engine or the request workflow.
type Calculator struct {
	tenants  TenantStore
	requests rental.Store
	now      func() time.Time
}

func NewCalculator(tenants TenantStore, requests rental.Store, now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{tenants: tenants, requests: requests, now: now}
}

// DeriveLeaseEnd computes leaseStart + leaseDurationMonths from the tenant's
// most recent approved rental request. The boolean is false when no approved
// request exists: the lease end is unknown, which callers must never read as
// "never ends".
func (c *Calculator) DeriveLeaseEnd(ctx context.Context, t *Tenant) (time.Time, bool, error) {
	req, err := c.requests.FindLatestApproved(ctx, t.UserID, t.PropertyID)
	if err != nil {
		if errors.Is(err, rental.ErrRequestNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return t.LeaseStart.AddDate(0, req.LeaseDurationMonths, 0), true, nil
}

// LeaseRange is the derived occupancy interval [leaseStart, derived end).
func (c *Calculator) LeaseRange(ctx context.Context, t *Tenant) (daterange.DateRange, bool, error) {
	end, ok, err := c.DeriveLeaseEnd(ctx, t)
	if err != nil || !ok {
		return daterange.DateRange{}, false, err
	}
	return daterange.DateRange{Start: t.LeaseStart, End: end}, true, nil
}

// IsExpired reports whether the tenant's derived lease end has passed.
// An underivable end yields false: unknown is not expired.
func (c *Calculator) IsExpired(ctx context.Context, id TenantID) (bool, error) {
	t, err := c.tenants.ByID(ctx, id)
	if err != nil {
		return false, err
	}
	end, ok, err := c.DeriveLeaseEnd(ctx, t)
	if err != nil || !ok {
		return false, err
	}
	return !c.today().Before(end), nil
}

// RemainingDays returns the whole days left until the derived lease end,
// clamped at zero. The boolean is false when the end cannot be derived.
func (c *Calculator) RemainingDays(ctx context.Context, id TenantID) (int, bool, error) {
	t, err := c.tenants.ByID(ctx, id)
	if err != nil {
		return 0, false, err
	}
	end, ok, err := c.DeriveLeaseEnd(ctx, t)
	if err != nil || !ok {
		return 0, false, err
	}
	days := int(end.Sub(c.today()).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, true, nil
}

// ListExpiring returns active tenants whose derived lease end falls within
// [today, today+daysAhead]. Tenants with unknown ends are skipped; flagging
// them is a reporting concern, not an expiry one.
func (c *Calculator) ListExpiring(ctx context.Context, daysAhead int) ([]*Tenant, error) {
	return c.filterActive(ctx, func(end time.Time) bool {
		today := c.today()
		return !end.Before(today) && !end.After(today.AddDate(0, 0, daysAhead))
	})
}

// ListExpired returns active tenants whose derived lease end lies before today.
func (c *Calculator) ListExpired(ctx context.Context) ([]*Tenant, error) {
	return c.filterActive(ctx, func(end time.Time) bool {
		return end.Before(c.today())
	})
}

func (c *Calculator) filterActive(ctx context.Context, keep func(end time.Time) bool) ([]*Tenant, error) {
	tenants, err := c.tenants.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]*Tenant, 0, len(tenants))
	for _, t := range tenants {
		end, ok, err := c.DeriveLeaseEnd(ctx, t)
		if err != nil {
			return nil, err
		}
		if ok && keep(end) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

func (c *Calculator) today() time.Time {
	return daterange.Day(c.now())
}
