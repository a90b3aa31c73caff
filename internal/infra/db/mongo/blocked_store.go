package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "rentcore/internal/domain/availability"
	domainproperty "rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
)

type BlockedStore struct {
	col *mongo.Collection
}

func NewBlockedStore(db *mongo.Database) *BlockedStore {
	col := db.Collection("agg_blocked_period")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "start", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BlockedStore{col: col}
}

func (s *BlockedStore) FindOverlapping(ctx context.Context, propertyID domainproperty.PropertyID, r daterange.DateRange) ([]*domainavailability.BlockedPeriod, error) {
	filter := bson.M{
		"property_id": string(propertyID),
		"start":       bson.M{"$lt": r.End.UnixMilli()},
		"end":         bson.M{"$gt": r.Start.UnixMilli()},
	}
	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainavailability.BlockedPeriod
	for cursor.Next(ctx) {
		var doc blockedDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (s *BlockedStore) Create(ctx context.Context, bp *domainavailability.BlockedPeriod) error {
	doc := blockedDocument{
		ID:         string(bp.ID),
		PropertyID: string(bp.PropertyID),
		Start:      bp.Range.Start.UnixMilli(),
		End:        bp.Range.End.UnixMilli(),
		Reason:     bp.Reason,
		CreatedAt:  bp.CreatedAt.UnixMilli(),
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

type blockedDocument struct {
	ID         string `bson:"_id"`
	PropertyID string `bson:"property_id"`
	Start      int64  `bson:"start"`
	End        int64  `bson:"end"`
	Reason     string `bson:"reason"`
	CreatedAt  int64  `bson:"created_at"`
}

func (d blockedDocument) toAggregate() *domainavailability.BlockedPeriod {
	return &domainavailability.BlockedPeriod{
		ID:         domainavailability.BlockedPeriodID(d.ID),
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		Range:      daterange.DateRange{Start: timestampToTime(d.Start), End: timestampToTime(d.End)},
		Reason:     d.Reason,
		CreatedAt:  timestampToTime(d.CreatedAt),
	}
}

var _ domainavailability.BlockedPeriodStore = (*BlockedStore)(nil)
