package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "rentcore/internal/domain/property"
	domainrental "rentcore/internal/domain/rental"
	"rentcore/internal/domain/shared/daterange"
)

type RequestStore struct {
	col *mongo.Collection
}

func NewRequestStore(db *mongo.Database) *RequestStore {
	col := db.Collection("agg_rental_request")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &RequestStore{col: col}
}

func (s *RequestStore) ByID(ctx context.Context, id domainrental.RequestID) (*domainrental.Request, error) {
	var doc requestDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrental.ErrRequestNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (s *RequestStore) FindApprovedOverlapping(ctx context.Context, propertyID domainproperty.PropertyID, r daterange.DateRange) ([]*domainrental.Request, error) {
	return s.findOverlapping(ctx, propertyID, r, domainrental.StatusApproved)
}

func (s *RequestStore) FindPendingOverlapping(ctx context.Context, propertyID domainproperty.PropertyID, r daterange.DateRange) ([]*domainrental.Request, error) {
	return s.findOverlapping(ctx, propertyID, r, domainrental.StatusPending)
}

func (s *RequestStore) findOverlapping(ctx context.Context, propertyID domainproperty.PropertyID, r daterange.DateRange, status domainrental.Status) ([]*domainrental.Request, error) {
	filter := bson.M{
		"property_id": string(propertyID),
		"status":      string(status),
		"start":       bson.M{"$lt": r.End.UnixMilli()},
		"end":         bson.M{"$gt": r.Start.UnixMilli()},
	}
	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainrental.Request
	for cursor.Next(ctx) {
		var doc requestDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

// FindLatestApproved orders by request date, then by response date, so the
// most recent application wins when several were filed the same instant.
func (s *RequestStore) FindLatestApproved(ctx context.Context, userID string, propertyID domainproperty.PropertyID) (*domainrental.Request, error) {
	filter := bson.M{
		"property_id": string(propertyID),
		"user_id":     userID,
		"status":      string(domainrental.StatusApproved),
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "requested_at", Value: -1}, {Key: "responded_at", Value: -1}})
	var doc requestDocument
	if err := s.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrental.ErrRequestNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (s *RequestStore) Create(ctx context.Context, req *domainrental.Request) error {
	doc := newRequestDocument(req)
	doc.Version = req.Version + 1
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	req.Version = doc.Version
	return nil
}

func (s *RequestStore) Save(ctx context.Context, req *domainrental.Request) error {
	doc := newRequestDocument(req)
	filter := bson.M{"_id": doc.ID, "version": req.Version}
	doc.Version = req.Version + 1
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
	req.Version = doc.Version
	return nil
}

type requestDocument struct {
	ID               string `bson:"_id"`
	PropertyID       string `bson:"property_id"`
	UserID           string `bson:"user_id"`
	Start            int64  `bson:"start"`
	End              int64  `bson:"end"`
	Months           int    `bson:"lease_duration_months"`
	Status           string `bson:"status"`
	RequestedAt      int64  `bson:"requested_at"`
	LandlordResponse string `bson:"landlord_response"`
	RespondedAt      int64  `bson:"responded_at"`
	Version          int64  `bson:"version"`
}

func newRequestDocument(req *domainrental.Request) requestDocument {
	return requestDocument{
		ID:               string(req.ID),
		PropertyID:       string(req.PropertyID),
		UserID:           req.UserID,
		Start:            req.Start.UnixMilli(),
		End:              req.End.UnixMilli(),
		Months:           req.LeaseDurationMonths,
		Status:           string(req.Status),
		RequestedAt:      req.RequestedAt.UnixMilli(),
		LandlordResponse: req.LandlordResponse,
		RespondedAt:      req.RespondedAt.UnixMilli(),
		Version:          req.Version,
	}
}

func (d requestDocument) toAggregate() *domainrental.Request {
	return &domainrental.Request{
		ID:                  domainrental.RequestID(d.ID),
		PropertyID:          domainproperty.PropertyID(d.PropertyID),
		UserID:              d.UserID,
		Start:               timestampToTime(d.Start),
		End:                 timestampToTime(d.End),
		LeaseDurationMonths: d.Months,
		Status:              domainrental.Status(d.Status),
		RequestedAt:         timestampToTime(d.RequestedAt),
		LandlordResponse:    d.LandlordResponse,
		RespondedAt:         timestampToTime(d.RespondedAt),
		Version:             d.Version,
	}
}

var _ domainrental.Store = (*RequestStore)(nil)
