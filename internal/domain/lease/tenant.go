package lease

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
	"rentcore/internal/domain/shared/events"
)

var (
	ErrTenantNotFound = errors.New("lease: tenant not found")
	ErrUserRequired   = errors.New("lease: user id required")
	ErrStartRequired  = errors.New("lease: lease start required")
	ErrInvalidState   = errors.New("lease: invalid state transition")
)

type TenantID string

type TenantStatus string

const (
	TenantActive   TenantStatus = "ACTIVE"
	TenantInactive TenantStatus = "INACTIVE"
)

// Tenant is an active lease record. It stores the lease start only; the lease
// end is always derived from the latest approved rental request (see
// Calculator) and must never be persisted alongside.
type Tenant struct {
	ID         TenantID
	UserID     string
	PropertyID property.PropertyID
	LeaseStart time.Time
	Status     TenantStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type TenantStore interface {
	ByID(ctx context.Context, id TenantID) (*Tenant, error)
	FindActiveByProperty(ctx context.Context, propertyID property.PropertyID) ([]*Tenant, error)
	FindActiveByUserAndProperty(ctx context.Context, userID string, propertyID property.PropertyID) (*Tenant, error)
	ListActive(ctx context.Context) ([]*Tenant, error)
	Create(ctx context.Context, t *Tenant) error
	Save(ctx context.Context, t *Tenant) error
}

type CreateParams struct {
	ID         TenantID
	UserID     string
	PropertyID property.PropertyID
	LeaseStart time.Time
	RequestID  string
	Now        time.Time
}

// NewTenant materializes a lease record from an approved rental request.
func NewTenant(params CreateParams) (*Tenant, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, ErrUserRequired
	}
	if params.LeaseStart.IsZero() {
		return nil, ErrStartRequired
	}
	now := params.Now.UTC()
	t := &Tenant{
		ID:         params.ID,
		UserID:     params.UserID,
		PropertyID: params.PropertyID,
		LeaseStart: daterange.Day(params.LeaseStart),
		Status:     TenantActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.Record(TenantMaterialized{TenantID: t.ID, UserID: t.UserID, PropertyID: t.PropertyID, RequestID: params.RequestID, LeaseStart: t.LeaseStart, At: now})
	return t, nil
}

// Deactivate ends the lease record. The trigger (derived end passing, or an
// explicit termination) lives outside this core.
func (t *Tenant) Deactivate(now time.Time) error {
	if t.Status != TenantActive {
		return ErrInvalidState
	}
	t.Status = TenantInactive
	t.UpdatedAt = now.UTC()
	return nil
}
