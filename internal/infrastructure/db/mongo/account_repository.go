package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

type AccountRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewAccountRepository(db *mongo.Database, timeout time.Duration) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection), timeout: opTimeout(timeout)}
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

type mongoAccount struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Name         string             `bson:"name"`
	Company      string             `bson:"company"`
	Credits      int64              `bson:"credits"`
	APIKey       string             `bson:"apiKey,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (m *mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:           m.ID.Hex(),
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Company:      m.Company,
		Credits:      m.Credits,
		APIKey:       m.APIKey,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type balanceDoc struct {
	Credits int64 `bson:"credits"`
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := mongoAccount{
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Name:         account.Name,
		Company:      account.Company,
		Credits:      account.Credits,
		APIKey:       account.APIKey,
		CreatedAt:    account.CreatedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, storeError("insert account", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return r.FindByEmail(ctx, account.Email)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByAPIKey(ctx context.Context, key string) (*domain.Account, error) {
	if key == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"apiKey": key})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeError("find account", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) SetAPIKey(ctx context.Context, id, key string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"apiKey": key}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateAPIKey
		}
		return storeError("set api key", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DebitCredits matches only when credits >= cost, so the check and the
// decrement happen in one document update.
func (r *AccountRepository) DebitCredits(ctx context.Context, id string, cost int64) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"_id": oid, "credits": bson.M{"$gte": cost}}
	update := bson.M{"$inc": bson.M{"credits": -cost}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"credits": 1})

	var doc balanceDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrInsufficientCredit
		}
		return 0, storeError("debit credits", err)
	}
	return doc.Credits, nil
}

func (r *AccountRepository) AddCredits(ctx context.Context, id string, delta int64) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"credits": 1})

	var doc balanceDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"credits": delta}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrAccountNotFound
		}
		if isIncOverflow(err) {
			return 0, domain.ErrCreditOverflow
		}
		return 0, storeError("add credits", err)
	}
	return doc.Credits, nil
}
