package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentcore/internal/app/uow"
	domainavailability "rentcore/internal/domain/availability"
	domainbooking "rentcore/internal/domain/booking"
	domainlease "rentcore/internal/domain/lease"
	domainproperty "rentcore/internal/domain/property"
	domainrental "rentcore/internal/domain/rental"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo sessions into the generic UnitOfWork interface.
// Multi-document transactions plus the version filters in the stores make the
// availability check and the commitment write atomic per property.
type Factory struct {
	DB *mongo.Database

	PropertyRepo domainproperty.Repository
	BookingRepo  domainbooking.Store
	TenantRepo   domainlease.TenantStore
	RequestRepo  domainrental.Store
	BlockedRepo  domainavailability.BlockedPeriodStore
}

// Begin starts a MongoDB session/transaction. Read-only units skip the
// session entirely: queries read the collections directly and Commit and
// Rollback are no-ops.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	unit := &Unit{
		db:         f.DB,
		properties: f.PropertyRepo,
		bookings:   f.BookingRepo,
		tenants:    f.TenantRepo,
		requests:   f.RequestRepo,
		blocked:    f.BlockedRepo,
	}
	if opts.ReadOnly {
		return unit, nil
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	unit.session = session
	return unit, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	properties domainproperty.Repository
	bookings   domainbooking.Store
	tenants    domainlease.TenantStore
	requests   domainrental.Store
	blocked    domainavailability.BlockedPeriodStore
}

func (u *Unit) Properties() domainproperty.Repository          { return u.properties }
func (u *Unit) Bookings() domainbooking.Store                  { return u.bookings }
func (u *Unit) Tenants() domainlease.TenantStore               { return u.tenants }
func (u *Unit) Requests() domainrental.Store                   { return u.requests }
func (u *Unit) Blocked() domainavailability.BlockedPeriodStore { return u.blocked }

func (u *Unit) Commit(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream stores. Sessionless read-only units leave the context alone.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	if u.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
