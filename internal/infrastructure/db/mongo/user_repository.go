package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ebms/billing-system/internal/core/domain"
)

const (
	collectionUsers = "users"
	emailIndex      = "uniq_email"
	meterIndex      = "uniq_customer_meter"
)

// UserRepository implements ports.UserRepository on a MongoDB collection.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Address      string             `bson:"address"`
	Email        string             `bson:"email"`
	MeterNumber  string             `bson:"meter_number"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Address:      d.Address,
		Email:        d.Email,
		MeterNumber:  d.MeterNumber,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByMeterNumber(ctx context.Context, meterNumber string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"meter_number": meterNumber, "role": string(domain.RoleCustomer)})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StorageError("find user", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc := userDocument{
		Name:         user.Name,
		Address:      user.Address,
		Email:        user.Email,
		MeterNumber:  user.MeterNumber,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    bsonTime(user.CreatedAt),
		UpdatedAt:    bsonTime(user.UpdatedAt),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, duplicateOr(err, "insert user")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":          user.Name,
		"address":       user.Address,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"updated_at":    bsonTime(user.UpdatedAt),
	}}
	after := options.After
	var doc userDocument
	err = r.coll.FindOneAndUpdate(opCtx, bson.M{"_id": oid}, update,
		&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, duplicateOr(err, "update user")
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, domain.StorageError("list users", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.StorageError("decode users", err)
	}

	users := make([]*domain.User, len(docs))
	for i, d := range docs {
		users[i] = d.toDomain()
	}
	return users, nil
}

// EnsureIndexes creates the uniqueness indexes on email and customer meter number.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndex),
		},
		{
			Keys: bson.D{{Key: "meter_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(meterIndex).
				SetPartialFilterExpression(bson.M{"role": string(domain.RoleCustomer)}),
		},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func duplicateOr(err error, op string) error {
	if mongo.IsDuplicateKeyError(err) {
		if isIndexConflict(err, meterIndex) {
			return domain.ErrMeterExists
		}
		return domain.ErrUserExists
	}
	return domain.StorageError(op, err)
}

// isIndexConflict reports whether a duplicate key error came from the named
// index. The server names the index as "index: <name> dup key".
func isIndexConflict(err error, index string) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 && strings.Contains(e.Message, "index: "+index+" ") {
				return true
			}
		}
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == 11000 && strings.Contains(ce.Message, "index: "+index+" ")
	}
	return strings.Contains(err.Error(), "index: "+index+" ")
}
