package dto

import (
	"time"

	"rentcore/internal/domain/lease"
)

type TenantSummary struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	PropertyID    string `json:"property_id"`
	LeaseStart    string `json:"lease_start"`
	LeaseEnd      string `json:"lease_end,omitempty"`
	RemainingDays *int   `json:"remaining_days,omitempty"`
}

// MapTenant renders a tenant with its derived lease end. An unknown end stays
// empty; it must never be rendered as an unbounded lease.
func MapTenant(t *lease.Tenant, end time.Time, known bool, remainingDays int) TenantSummary {
	summary := TenantSummary{
		ID:         string(t.ID),
		UserID:     t.UserID,
		PropertyID: string(t.PropertyID),
		LeaseStart: t.LeaseStart.Format(DateLayout),
	}
	if known {
		summary.LeaseEnd = end.Format(DateLayout)
		days := remainingDays
		summary.RemainingDays = &days
	}
	return summary
}
