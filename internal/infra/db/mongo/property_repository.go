package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "rentcore/internal/domain/property"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("agg_property")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrPropertyNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) RentalMode(ctx context.Context, id domainproperty.PropertyID) (domainproperty.RentalMode, error) {
	opts := options.FindOne().SetProjection(bson.M{"mode": 1})
	var doc struct {
		Mode string `bson:"mode"`
	}
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domainproperty.ErrPropertyNotFound
		}
		return "", err
	}
	return domainproperty.RentalMode(doc.Mode), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	doc := newPropertyDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

type propertyDocument struct {
	ID               string          `bson:"_id"`
	Landlord         string          `bson:"landlord_id"`
	Title            string          `bson:"title"`
	Description      string          `bson:"description"`
	Address          addressDocument `bson:"address"`
	Mode             string          `bson:"mode"`
	NightlyRateCents int64           `bson:"nightly_rate_cents"`
	MonthlyRentCents int64           `bson:"monthly_rent_cents"`
	CreatedAt        int64           `bson:"created_at"`
	UpdatedAt        int64           `bson:"updated_at"`
	Version          int64           `bson:"version"`
}

type addressDocument struct {
	Line1   string `bson:"line1"`
	Line2   string `bson:"line2"`
	City    string `bson:"city"`
	Country string `bson:"country"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	return propertyDocument{
		ID:               string(p.ID),
		Landlord:         string(p.Landlord),
		Title:            p.Title,
		Description:      p.Description,
		Address:          addressDocument{Line1: p.Address.Line1, Line2: p.Address.Line2, City: p.Address.City, Country: p.Address.Country},
		Mode:             string(p.Mode),
		NightlyRateCents: p.NightlyRateCents,
		MonthlyRentCents: p.MonthlyRentCents,
		CreatedAt:        p.CreatedAt.UnixMilli(),
		UpdatedAt:        p.UpdatedAt.UnixMilli(),
		Version:          p.Version,
	}
}

func (d propertyDocument) toAggregate() *domainproperty.Property {
	return &domainproperty.Property{
		ID:               domainproperty.PropertyID(d.ID),
		Landlord:         domainproperty.LandlordID(d.Landlord),
		Title:            d.Title,
		Description:      d.Description,
		Address:          domainproperty.Address{Line1: d.Address.Line1, Line2: d.Address.Line2, City: d.Address.City, Country: d.Address.Country},
		Mode:             domainproperty.RentalMode(d.Mode),
		NightlyRateCents: d.NightlyRateCents,
		MonthlyRentCents: d.MonthlyRentCents,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainproperty.Repository = (*PropertyRepository)(nil)
