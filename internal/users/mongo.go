package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// DefaultCollectionName はユーザーを保存するコレクション名です。
	DefaultCollectionName = "users"
)

type userDocument struct {
	ID       bson.ObjectID `bson:"_id,omitempty"`
	Name     string        `bson:"name"`
	Email    string        `bson:"email"`
	Password string        `bson:"password"`

	IsVerified                 bool       `bson:"isVerified"`
	VerificationToken          *string    `bson:"verificationToken"`
	VerificationTokenExpiresAt *time.Time `bson:"verificationTokenExpiresAt"`

	ResetPasswordToken     *string    `bson:"resetPasswordToken"`
	ResetPasswordExpiresAt *time.Time `bson:"resetPasswordExpiresAt"`

	LastLogin time.Time `bson:"lastLogin"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStore は MongoDB をバックエンドとする Store 実装です。
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo は MongoDB に接続し、email の一意インデックスを作成します。
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	store := NewMongoStore(client, client.Database(database).Collection(DefaultCollectionName))
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

// NewMongoStore は既存のクライアントとコレクションから MongoStore を作成します。
func NewMongoStore(client *mongo.Client, coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, coll: coll}
}

// EnsureIndexes は email の一意インデックスを作成します。
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, user *User) (*User, error) {
	now := time.Now().UTC()
	doc := toDocument(user)
	doc.ID = bson.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.LastLogin.IsZero() {
		doc.LastLogin = now
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toUser(), nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) FindByResetToken(ctx context.Context, email, token string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": email, "resetPasswordToken": token})
}

func (s *MongoStore) Update(ctx context.Context, user *User) error {
	oid, err := bson.ObjectIDFromHex(user.ID)
	if err != nil {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":                       user.Name,
		"email":                      user.Email,
		"password":                   user.Password,
		"isVerified":                 user.IsVerified,
		"verificationToken":          user.VerificationToken,
		"verificationTokenExpiresAt": user.VerificationTokenExpiresAt,
		"resetPasswordToken":         user.ResetPasswordToken,
		"resetPasswordExpiresAt":     user.ResetPasswordExpiresAt,
		"lastLogin":                  user.LastLogin,
		"updatedAt":                  user.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toUser(), nil
}

func toDocument(u *User) *userDocument {
	doc := &userDocument{
		Name:                       u.Name,
		Email:                      u.Email,
		Password:                   u.Password,
		IsVerified:                 u.IsVerified,
		VerificationToken:          u.VerificationToken,
		VerificationTokenExpiresAt: u.VerificationTokenExpiresAt,
		ResetPasswordToken:         u.ResetPasswordToken,
		ResetPasswordExpiresAt:     u.ResetPasswordExpiresAt,
		LastLogin:                  u.LastLogin,
		CreatedAt:                  u.CreatedAt,
		UpdatedAt:                  u.UpdatedAt,
	}
	if oid, err := bson.ObjectIDFromHex(u.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (d *userDocument) toUser() *User {
	return &User{
		ID:                         d.ID.Hex(),
		Name:                       d.Name,
		Email:                      d.Email,
		Password:                   d.Password,
		IsVerified:                 d.IsVerified,
		VerificationToken:          d.VerificationToken,
		VerificationTokenExpiresAt: d.VerificationTokenExpiresAt,
		ResetPasswordToken:         d.ResetPasswordToken,
		ResetPasswordExpiresAt:     d.ResetPasswordExpiresAt,
		LastLogin:                  d.LastLogin,
		CreatedAt:                  d.CreatedAt,
		UpdatedAt:                  d.UpdatedAt,
	}
}
