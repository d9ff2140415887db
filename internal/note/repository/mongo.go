package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo is the MongoDB-backed note store. It deals only in raw
// documents; decoding into records happens in the mapper so that a
// malformed stored document surfaces as a classified error, not a panic.
type MongoRepo struct {
	col *mongo.Collection
}

// NewMongoRepo wraps a collection and ensures the unique title index the
// create path relies on for conflict detection.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("create title index: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Find(ctx context.Context, limit, offset int64) ([]bson.M, error) {
	opts := options.Find().
		SetLimit(limit).
		SetSkip(offset).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []bson.M{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepo) FindOne(ctx context.Context, id primitive.ObjectID) (bson.M, error) {
	var doc bson.M
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (m *MongoRepo) InsertOne(ctx context.Context, doc bson.D) (primitive.ObjectID, error) {
	res, err := m.col.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid, nil
}

// UpdateOne applies the $set payload and returns the post-update document
// in one atomic step. Absent ids surface as mongo.ErrNoDocuments.
func (m *MongoRepo) UpdateOne(ctx context.Context, id primitive.ObjectID, set bson.D) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bson.M
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (m *MongoRepo) DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
