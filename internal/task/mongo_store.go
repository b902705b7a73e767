package task

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, db, coll string) (*MongoStore, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return NewMongoStoreWithClient(ctx, cli, db, coll)
}

func NewMongoStoreWithClient(ctx context.Context, cli *mongo.Client, db, coll string) (*MongoStore, error) {
	c := cli.Database(db).Collection(coll)

	// Secondary index: every query below filters by owner.
	_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}},
	})
	if err != nil {
		return nil, err
	}
	return &MongoStore{coll: c}, nil
}

type taskDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Owner       string             `bson:"owner"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Date        string             `bson:"date"`
	Completed   bool               `bson:"completed"`
	Important   bool               `bson:"important"`
	Dir         string             `bson:"dir"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d taskDoc) toTask() Task {
	return Task{
		ID:          d.ID.Hex(),
		Owner:       d.Owner,
		Title:       d.Title,
		Description: d.Description,
		Date:        d.Date,
		Completed:   d.Completed,
		Important:   d.Important,
		Dir:         d.Dir,
	}
}

func (s *MongoStore) Insert(ctx context.Context, t *Task) error {
	res, err := s.coll.InsertOne(ctx, taskDoc{
		Owner:       t.Owner,
		Title:       t.Title,
		Description: t.Description,
		Date:        t.Date,
		Completed:   t.Completed,
		Important:   t.Important,
		Dir:         t.Dir,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid.Hex()
	}
	return nil
}

func (s *MongoStore) ListByOwner(ctx context.Context, owner string) ([]Task, error) {
	cur, err := s.coll.Find(ctx, bson.M{"owner": owner},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Task{}
	for cur.Next(ctx) {
		var doc taskDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toTask())
	}
	return out, cur.Err()
}

func (s *MongoStore) Get(ctx context.Context, owner, id string) (*Task, error) {
	filter, err := ownedFilter(owner, id)
	if err != nil {
		return nil, err
	}
	var doc taskDoc
	err = s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	t := doc.toTask()
	return &t, nil
}

func (s *MongoStore) Update(ctx context.Context, owner, id string, p Patch) (*Task, error) {
	filter, err := ownedFilter(owner, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Date != nil {
		set["date"] = *p.Date
	}
	if p.Completed != nil {
		set["completed"] = *p.Completed
	}
	if p.Important != nil {
		set["important"] = *p.Important
	}
	if p.Dir != nil {
		set["dir"] = *p.Dir
	}
	if len(set) == 0 {
		return s.Get(ctx, owner, id)
	}

	var doc taskDoc
	err = s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	t := doc.toTask()
	return &t, nil
}

func (s *MongoStore) Delete(ctx context.Context, owner, id string) error {
	filter, err := ownedFilter(owner, id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAllByOwner(ctx context.Context, owner string) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"owner": owner})
	return err
}

// ownedFilter builds the {_id, owner} filter; a malformed id is reported as
// not-found so callers cannot probe with arbitrary strings.
func ownedFilter(owner, id string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTaskNotFound
	}
	return bson.M{"_id": oid, "owner": owner}, nil
}
