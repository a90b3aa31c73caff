package memory

import (
	"context"
	"errors"
	"sync"

	"rentcore/internal/app/uow"
	domainavailability "rentcore/internal/domain/availability"
	domainbooking "rentcore/internal/domain/booking"
	domainlease "rentcore/internal/domain/lease"
	domainproperty "rentcore/internal/domain/property"
	domainrental "rentcore/internal/domain/rental"
)

// ErrFactoryMisconfigured indicates missing stores.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires the in-memory stores into a unit-of-work boundary. Write
// units are serialized per property: Begin blocks until no other write unit
// holds the same property key, which makes check-then-write linearizable for
// that property. Commands without a property scope share one global key.
// Read-only units take no lock.
type Factory struct {
	Properties domainproperty.Repository
	Bookings   domainbooking.Store
	Tenants    domainlease.TenantStore
	Requests   domainrental.Store
	Blocked    domainavailability.BlockedPeriodStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFactory(properties domainproperty.Repository, bookings domainbooking.Store, tenants domainlease.TenantStore, requests domainrental.Store, blocked domainavailability.BlockedPeriodStore) *Factory {
	return &Factory{
		Properties: properties,
		Bookings:   bookings,
		Tenants:    tenants,
		Requests:   requests,
		Blocked:    blocked,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Properties == nil || f.Bookings == nil || f.Tenants == nil || f.Requests == nil || f.Blocked == nil {
		return nil, ErrFactoryMisconfigured
	}
	unit := &Unit{
		properties: f.Properties,
		bookings:   f.Bookings,
		tenants:    f.Tenants,
		requests:   f.Requests,
		blocked:    f.Blocked,
	}
	if !opts.ReadOnly {
		lock := f.lockFor(opts.Property)
		lock.Lock()
		unit.release = lock.Unlock
	}
	return unit, nil
}

func (f *Factory) lockFor(property string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	lock, ok := f.locks[property]
	if !ok {
		lock = &sync.Mutex{}
		f.locks[property] = lock
	}
	return lock
}

// Unit is a uow.UnitOfWork over shared in-memory stores. Writes land
// immediately; Commit and Rollback only release the serialization lock, so a
// rolled-back unit does not undo its writes. Handlers compensate by writing
// only after all checks pass.
type Unit struct {
	properties domainproperty.Repository
	bookings   domainbooking.Store
	tenants    domainlease.TenantStore
	requests   domainrental.Store
	blocked    domainavailability.BlockedPeriodStore

	releaseOnce sync.Once
	release     func()
}

func (u *Unit) Properties() domainproperty.Repository          { return u.properties }
func (u *Unit) Bookings() domainbooking.Store                  { return u.bookings }
func (u *Unit) Tenants() domainlease.TenantStore               { return u.tenants }
func (u *Unit) Requests() domainrental.Store                   { return u.requests }
func (u *Unit) Blocked() domainavailability.BlockedPeriodStore { return u.blocked }

func (u *Unit) Commit(ctx context.Context) error {
	u.unlock()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.unlock()
	return nil
}

func (u *Unit) unlock() {
	u.releaseOnce.Do(func() {
		if u.release != nil {
			u.release()
		}
	})
}

var _ uow.UoWFactory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
