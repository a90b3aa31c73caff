package availability

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"rentcore/internal/domain/booking"
	"rentcore/internal/domain/lease"
	"rentcore/internal/domain/property"
	"rentcore/internal/domain/rental"
	"rentcore/internal/domain/shared/daterange"
)

// Engine answers availability questions by aggregating the four conflict
// sources: bookings, active leases, approved rental requests and landlord
// blocks. The boolean checks are fail-safe-closed: a collaborator failure is
// logged and reported as unavailable, never as available.
type Engine struct {
	Properties property.Lookup
	Bookings   booking.Store
	Tenants    lease.TenantStore
	Requests   rental.Store
	Blocked    BlockedPeriodStore
	Leases     *lease.Calculator
	Logger     *slog.Logger
	Now        func() time.Time
}

// IsAvailableForDaily reports whether the property can take a daily booking
// over the range. Always false for properties not in daily mode.
func (e *Engine) IsAvailableForDaily(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange) bool {
	return e.availableFor(ctx, propertyID, r, property.ModeDaily)
}

// IsAvailableForAnnual reports whether the property can take an annual lease
// over the range. A property with an unexpired active tenant is unavailable
// for any range: one property hosts at most one concurrent tenant.
func (e *Engine) IsAvailableForAnnual(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange) bool {
	return e.availableFor(ctx, propertyID, r, property.ModeMonthly)
}

func (e *Engine) availableFor(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange, want property.RentalMode) bool {
	mode, err := e.Properties.RentalMode(ctx, propertyID)
	if err != nil {
		e.logger().WarnContext(ctx, "availability check failed closed", "property_id", propertyID, "error", err)
		return false
	}
	if mode != want {
		return false
	}
	conflicts, err := e.Conflicts(ctx, propertyID, r)
	if err != nil {
		e.logger().WarnContext(ctx, "availability check failed closed", "property_id", propertyID, "error", err)
		return false
	}
	return len(conflicts) == 0
}

// Conflicts aggregates every conflicting commitment for the range into one
// list sorted by start date. It is the diagnostic counterpart of the boolean
// checks and must agree with them: an empty list means available.
func (e *Engine) Conflicts(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange) ([]Conflict, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	mode, err := e.Properties.RentalMode(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("availability: rental mode lookup: %w", err)
	}

	conflicts := make([]Conflict, 0, 4)

	bookings, err := e.Bookings.FindOverlapping(ctx, propertyID, r)
	if err != nil {
		return nil, fmt.Errorf("availability: bookings: %w", err)
	}
	for _, b := range bookings {
		if b.Status == booking.StatusCancelled {
			continue
		}
		occupied := b.EffectiveRange()
		if !occupied.Overlaps(r) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:        ConflictBooking,
			Range:       occupied,
			Description: "confirmed booking",
			SourceID:    string(b.ID),
		})
	}

	tenants, err := e.Tenants.FindActiveByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("availability: tenants: %w", err)
	}
	today := daterange.Day(e.now())
	leased := make(map[string]struct{}, len(tenants))
	for _, t := range tenants {
		leased[t.UserID] = struct{}{}
		lr, known, err := e.Leases.LeaseRange(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("availability: lease range: %w", err)
		}
		if !known {
			// Lease end unknown: fail safe. The lease blocks monthly
			// properties outright and any daily range it could reach into.
			if mode == property.ModeMonthly || t.LeaseStart.Before(r.End) {
				conflicts = append(conflicts, Conflict{
					Type:        ConflictLease,
					Range:       daterange.SingleDay(t.LeaseStart),
					Description: "active lease (end date unknown)",
					SourceID:    string(t.ID),
				})
			}
			continue
		}
		unexpired := lr.End.After(today)
		if lr.Overlaps(r) || (mode == property.ModeMonthly && unexpired) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictLease,
				Range:       lr,
				Description: "active lease",
				SourceID:    string(t.ID),
			})
		}
	}

	approved, err := e.Requests.FindApprovedOverlapping(ctx, propertyID, r)
	if err != nil {
		return nil, fmt.Errorf("availability: approved requests: %w", err)
	}
	for _, req := range approved {
		if !req.ProposedRange().Overlaps(r) {
			continue
		}
		if _, ok := leased[req.UserID]; ok {
			// Already represented by the materialized tenant above.
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:        ConflictLease,
			Range:       req.ProposedRange(),
			Description: "approved rental request",
			SourceID:    string(req.ID),
		})
	}

	blocked, err := e.Blocked.FindOverlapping(ctx, propertyID, r)
	if err != nil {
		return nil, fmt.Errorf("availability: blocked periods: %w", err)
	}
	for _, bp := range blocked {
		if !bp.Range.Overlaps(r) {
			continue
		}
		desc := bp.Reason
		if desc == "" {
			desc = "landlord block"
		}
		conflicts = append(conflicts, Conflict{
			Type:        ConflictBlocked,
			Range:       bp.Range,
			Description: desc,
			SourceID:    string(bp.ID),
		})
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Range.Start.Before(conflicts[j].Range.Start)
	})
	return conflicts, nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
