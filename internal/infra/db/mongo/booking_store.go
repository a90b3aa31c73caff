package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentcore/internal/domain/booking"
	domainproperty "rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
)

type BookingStore struct {
	col *mongo.Collection
}

func NewBookingStore(db *mongo.Database) *BookingStore {
	col := db.Collection("agg_booking")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "effective_start", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BookingStore{col: col}
}

func (s *BookingStore) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// FindOverlapping filters on the stored effective range; the availability
// engine re-applies the predicate, so the query may over-fetch on boundary
// rounding without harm.
func (s *BookingStore) FindOverlapping(ctx context.Context, propertyID domainproperty.PropertyID, r daterange.DateRange) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"property_id":     string(propertyID),
		"status":          bson.M{"$ne": string(domainbooking.StatusCancelled)},
		"effective_start": bson.M{"$lt": r.End.UnixMilli()},
		"effective_end":   bson.M{"$gt": r.Start.UnixMilli()},
	}
	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "effective_start", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (s *BookingStore) Create(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	b.Version = doc.Version
	return nil
}

func (s *BookingStore) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
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
	b.Version = doc.Version
	return nil
}

type bookingDocument struct {
	ID             string `bson:"_id"`
	PropertyID     string `bson:"property_id"`
	GuestID        string `bson:"guest_id"`
	Start          int64  `bson:"start"`
	End            *int64 `bson:"end"`
	EffectiveStart int64  `bson:"effective_start"`
	EffectiveEnd   int64  `bson:"effective_end"`
	Guests         int    `bson:"guests"`
	Status         string `bson:"status"`
	CreatedAt      int64  `bson:"created_at"`
	UpdatedAt      int64  `bson:"updated_at"`
	Version        int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	effective := b.EffectiveRange()
	doc := bookingDocument{
		ID:             string(b.ID),
		PropertyID:     string(b.PropertyID),
		GuestID:        b.GuestID,
		Start:          b.Start.UnixMilli(),
		EffectiveStart: effective.Start.UnixMilli(),
		EffectiveEnd:   effective.End.UnixMilli(),
		Guests:         b.Guests,
		Status:         string(b.Status),
		CreatedAt:      b.CreatedAt.UnixMilli(),
		UpdatedAt:      b.UpdatedAt.UnixMilli(),
		Version:        b.Version,
	}
	if b.End != nil {
		ms := b.End.UnixMilli()
		doc.End = &ms
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	var end *time.Time
	if d.End != nil {
		t := timestampToTime(*d.End)
		end = &t
	}
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		GuestID:    d.GuestID,
		Start:      timestampToTime(d.Start),
		End:        end,
		Guests:     d.Guests,
		Status:     domainbooking.Status(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

var _ domainbooking.Store = (*BookingStore)(nil)
