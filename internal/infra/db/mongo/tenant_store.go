package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlease "rentcore/internal/domain/lease"
	domainproperty "rentcore/internal/domain/property"
)

type TenantStore struct {
	col *mongo.Collection
}

func NewTenantStore(db *mongo.Database) *TenantStore {
	col := db.Collection("agg_tenant")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &TenantStore{col: col}
}

func (s *TenantStore) ByID(ctx context.Context, id domainlease.TenantID) (*domainlease.Tenant, error) {
	var doc tenantDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlease.ErrTenantNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (s *TenantStore) FindActiveByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]*domainlease.Tenant, error) {
	filter := bson.M{"property_id": string(propertyID), "status": string(domainlease.TenantActive)}
	return s.find(ctx, filter)
}

func (s *TenantStore) FindActiveByUserAndProperty(ctx context.Context, userID string, propertyID domainproperty.PropertyID) (*domainlease.Tenant, error) {
	filter := bson.M{"user_id": userID, "property_id": string(propertyID), "status": string(domainlease.TenantActive)}
	var doc tenantDocument
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlease.ErrTenantNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (s *TenantStore) ListActive(ctx context.Context) ([]*domainlease.Tenant, error) {
	return s.find(ctx, bson.M{"status": string(domainlease.TenantActive)})
}

func (s *TenantStore) find(ctx context.Context, filter bson.M) ([]*domainlease.Tenant, error) {
	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "lease_start", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainlease.Tenant
	for cursor.Next(ctx) {
		var doc tenantDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (s *TenantStore) Create(ctx context.Context, t *domainlease.Tenant) error {
	doc := newTenantDocument(t)
	doc.Version = t.Version + 1
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	t.Version = doc.Version
	return nil
}

func (s *TenantStore) Save(ctx context.Context, t *domainlease.Tenant) error {
	doc := newTenantDocument(t)
	filter := bson.M{"_id": doc.ID, "version": t.Version}
	doc.Version = t.Version + 1
	res, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	t.Version = doc.Version
	return nil
}

type tenantDocument struct {
	ID         string `bson:"_id"`
	UserID     string `bson:"user_id"`
	PropertyID string `bson:"property_id"`
	LeaseStart int64  `bson:"lease_start"`
	Status     string `bson:"status"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
	Version    int64  `bson:"version"`
}

func newTenantDocument(t *domainlease.Tenant) tenantDocument {
	return tenantDocument{
		ID:         string(t.ID),
		UserID:     t.UserID,
		PropertyID: string(t.PropertyID),
		LeaseStart: t.LeaseStart.UnixMilli(),
		Status:     string(t.Status),
		CreatedAt:  t.CreatedAt.UnixMilli(),
		UpdatedAt:  t.UpdatedAt.UnixMilli(),
		Version:    t.Version,
	}
}

func (d tenantDocument) toAggregate() *domainlease.Tenant {
	return &domainlease.Tenant{
		ID:         domainlease.TenantID(d.ID),
		UserID:     d.UserID,
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		LeaseStart: timestampToTime(d.LeaseStart),
		Status:     domainlease.TenantStatus(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

var _ domainlease.TenantStore = (*TenantStore)(nil)
