package tally

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "tallies"

// MongoStore keeps the record as one document, upserted by id.
type MongoStore struct {
	coll *mongo.Collection
	id   string
}

// NewMongoStore returns a store using the "tallies" collection of db.
func NewMongoStore(db *mongo.Database, id string) *MongoStore {
	return &MongoStore{coll: db.Collection(mongoCollection), id: id}
}

func (s *MongoStore) Load(ctx context.Context) (Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": s.id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, ErrNoRecord
		}
		return Record{}, fmt.Errorf("mongo find tally %s: %w", s.id, err)
	}
	return rec, nil
}

func (s *MongoStore) Save(ctx context.Context, rec Record) error {
	update := bson.M{"$set": bson.M{
		"playerXWins": rec.XWins,
		"playerOWins": rec.OWins,
		"draws":       rec.Draws,
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": s.id}, update, opts); err != nil {
		return fmt.Errorf("mongo upsert tally %s: %w", s.id, err)
	}
	return nil
}
