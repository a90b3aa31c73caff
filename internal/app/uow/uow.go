package uow

import (
	"context"

	domainavailability "rentcore/internal/domain/availability"
	domainbooking "rentcore/internal/domain/booking"
	domainlease "rentcore/internal/domain/lease"
	domainproperty "rentcore/internal/domain/property"
	domainrental "rentcore/internal/domain/rental"
)

// UnitOfWork coordinates the collaborator stores inside one transaction
// boundary. The availability check and the commitment write for a property
// must happen inside the same unit: factories guarantee that check-then-write
// is linearizable per property.
type UnitOfWork interface {
	Properties() domainproperty.Repository
	Bookings() domainbooking.Store
	Tenants() domainlease.TenantStore
	Requests() domainrental.Store
	Blocked() domainavailability.BlockedPeriodStore

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries. Property scopes the
// serialization domain for write units.
type TxOptions struct {
	ReadOnly bool
	Property string
}
