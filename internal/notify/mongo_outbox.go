package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoOutbox struct {
	coll *mongo.Collection
}

func NewMongoOutbox(ctx context.Context, uri, db, coll string) (*MongoOutbox, error) {
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
	return NewMongoOutboxWithClient(ctx, cli, db, coll)
}

func NewMongoOutboxWithClient(ctx context.Context, cli *mongo.Client, db, coll string) (*MongoOutbox, error) {
	c := cli.Database(db).Collection(coll)
	_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return nil, err
	}
	return &MongoOutbox{coll: c}, nil
}

type outboxDoc struct {
	ID        string    `bson:"_id"`
	To        string    `bson:"to"`
	Subject   string    `bson:"subject"`
	Body      string    `bson:"body"`
	Status    Status    `bson:"status"`
	Attempts  int       `bson:"attempts"`
	LastError string    `bson:"lastError,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (s *MongoOutbox) Enqueue(ctx context.Context, n *Notification) error {
	n.ID = uuid.NewString()
	n.Status = StatusPending
	n.CreatedAt = time.Now()
	_, err := s.coll.InsertOne(ctx, outboxDoc{
		ID:        n.ID,
		To:        n.To,
		Subject:   n.Subject,
		Body:      n.Body,
		Status:    n.Status,
		CreatedAt: n.CreatedAt,
	})
	return err
}

func (s *MongoOutbox) NextPending(ctx context.Context, limit int) ([]Notification, error) {
	cur, err := s.coll.Find(ctx, bson.M{"status": StatusPending},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Notification{}
	for cur.Next(ctx) {
		var doc outboxDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, Notification{
			ID:        doc.ID,
			To:        doc.To,
			Subject:   doc.Subject,
			Body:      doc.Body,
			Status:    doc.Status,
			Attempts:  doc.Attempts,
			LastError: doc.LastError,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, cur.Err()
}

func (s *MongoOutbox) MarkSent(ctx context.Context, id string) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"status": StatusSent, "sentAt": time.Now()},
	})
	return err
}

func (s *MongoOutbox) MarkFailed(ctx context.Context, id, errMsg string, final bool) error {
	set := bson.M{"lastError": errMsg}
	if final {
		set["status"] = StatusFailed
	}
	_, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$set": set,
		"$inc": bson.M{"attempts": 1},
	})
	return err
}
