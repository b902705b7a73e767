package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(ctx context.Context, uri, db, coll string) (*MongoUserStore, error) {
	opts := options.Client().ApplyURI(uri)
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return NewMongoUserStoreWithClient(ctx, cli, db, coll)
}

func NewMongoUserStoreWithClient(ctx context.Context, cli *mongo.Client, db, coll string) (*MongoUserStore, error) {
	c := cli.Database(db).Collection(coll)

	// Unique indexes back the DuplicateIdentity guarantee.
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return nil, err
	}
	return &MongoUserStore{coll: c}, nil
}

type userDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Email    string             `bson:"email"`
	PassHash string             `bson:"pass_hash"`
}

func (s *MongoUserStore) Create(ctx context.Context, u *Identity) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	res, err := s.coll.InsertOne(ctx, bson.M{
		"username":  u.Username,
		"email":     email,
		"pass_hash": u.PassHash,
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateUser
	}
	if err != nil {
		return err
	}
	u.Email = email
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid.Hex()
	}
	return nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoUserStore) FindByUsername(ctx context.Context, username string) (*Identity, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter any) (*Identity, error) {
	var doc userDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:       doc.ID.Hex(),
		Username: doc.Username,
		Email:    doc.Email,
		PassHash: doc.PassHash,
	}, nil
}
