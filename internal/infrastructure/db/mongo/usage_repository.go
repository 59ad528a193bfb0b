package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

// UsageRepository implements ports.UsageLogRepository using MongoDB.
type UsageRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewUsageRepository(db *mongo.Database, timeout time.Duration) *UsageRepository {
	return &UsageRepository{coll: db.Collection(usageCollection), timeout: opTimeout(timeout)}
}

var _ ports.UsageLogRepository = (*UsageRepository)(nil)

type mongoUsage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	Endpoint  string             `bson:"endpoint"`
	Cost      int64              `bson:"cost"`
	Timestamp time.Time          `bson:"timestamp"`
}

// Append inserts an entry. A zero timestamp is filled with the current time.
func (r *UsageRepository) Append(ctx context.Context, entry *domain.UsageLogEntry) error {
	uid, err := primitive.ObjectIDFromHex(entry.AccountID)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	doc := mongoUsage{
		UserID:    uid,
		Endpoint:  entry.Endpoint,
		Cost:      entry.Cost,
		Timestamp: ts.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return storeError("insert usage", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	entry.Timestamp = doc.Timestamp
	return nil
}

func (r *UsageRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.UsageLogEntry, error) {
	uid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.coll.Find(ctx, bson.M{"userId": uid}, opts)
	if err != nil {
		return nil, storeError("find usage", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUsage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError("decode usage", err)
	}

	// newest-first from the query; callers want chronological order
	out := make([]domain.UsageLogEntry, len(docs))
	for i, d := range docs {
		out[len(docs)-1-i] = domain.UsageLogEntry{
			ID:        d.ID.Hex(),
			AccountID: d.UserID.Hex(),
			Endpoint:  d.Endpoint,
			Cost:      d.Cost,
			Timestamp: d.Timestamp.UTC(),
		}
	}
	return out, nil
}
