package bookmarks

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCloseTimeout = 5 * time.Second

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

type mongoBookmark struct {
	URL       string    `bson:"url"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		return nil, errors.New("mongo collection name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	ms := &MongoStore{client: client, collection: client.Database(database).Collection(collection), now: time.Now}
	if err := ms.createSchema(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return ms, nil
}

func (ms *MongoStore) createSchema(ctx context.Context) error {
	_, err := ms.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetName("url_unique").SetUnique(true),
	})
	return err
}

// Add upserts with $setOnInsert so existing bookmarks keep their timestamp.
func (ms *MongoStore) Add(ctx context.Context, urls []string) (AddResult, error) {
	stamp := ms.now().UTC()
	added := 0
	for _, u := range uniq(urls) {
		res, err := ms.collection.UpdateOne(ctx,
			bson.M{"url": u},
			bson.M{"$setOnInsert": mongoBookmark{URL: u, CreatedAt: stamp}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return AddResult{Added: added, Skipped: len(urls) - added}, err
		}
		if res.UpsertedCount > 0 {
			added++
		}
	}
	return AddResult{Added: added, Skipped: len(urls) - added}, nil
}

func (ms *MongoStore) List(ctx context.Context) ([]Bookmark, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := ms.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []Bookmark{}
	for cursor.Next(ctx) {
		var doc mongoBookmark
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, Bookmark{URL: doc.URL, CreatedAt: doc.CreatedAt})
	}
	return out, cursor.Err()
}

func (ms *MongoStore) Remove(ctx context.Context, url string) (bool, error) {
	res, err := ms.collection.DeleteOne(ctx, bson.M{"url": url})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (ms *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
