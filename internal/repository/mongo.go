package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leadflow/leadflow-api/internal/domain"
)

const usersCollection = "users"

// MongoUserRepo implements UserRepository on the users collection.
type MongoUserRepo struct {
	collection *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{collection: db.Collection(usersCollection)}
}

// userDocument mirrors the stored document layout.
type userDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	FullName       string             `bson:"full_name"`
	HashedPassword string             `bson:"hashed_password,omitempty"`
	IsActive       bool               `bson:"is_active"`
	GoogleID       string             `bson:"google_id,omitempty"`
	Origin         string             `bson:"origin,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

// ConnectMongo opens a client for uri and checks it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique email index.
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepo) GetByID(ctx context.Context, userID string) (domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	if user.Origin == "" {
		user.Origin = domain.OriginLocal
	}

	doc := toDocument(user)
	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return domain.User{}, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return fromDocument(doc), nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc userDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return fromDocument(doc), nil
}

func toDocument(user domain.User) userDocument {
	return userDocument{
		Email:          user.Email,
		FullName:       user.FullName,
		HashedPassword: user.PasswordHash,
		IsActive:       user.IsActive,
		GoogleID:       user.GoogleID,
		Origin:         string(user.Origin),
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func fromDocument(doc userDocument) domain.User {
	origin := domain.UserOrigin(doc.Origin)
	if origin == "" {
		// documents written before origin was recorded
		origin = domain.OriginLocal
		if doc.GoogleID != "" && doc.HashedPassword == "" {
			origin = domain.OriginGoogle
		}
	}
	return domain.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		FullName:     doc.FullName,
		PasswordHash: doc.HashedPassword,
		IsActive:     doc.IsActive,
		GoogleID:     doc.GoogleID,
		Origin:       origin,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}
}
