package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dailyserve/lifehub/internal/config"
)

var (
	Client *mongo.Client
	DB     *mongo.Database
)

// Init connects to MongoDB and fails fast when it is unreachable.
func Init(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		zap.L().Fatal("unable to connect to mongodb", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		zap.L().Fatal("unable to ping mongodb", zap.Error(err))
	}

	Client = client
	DB = client.Database(cfg.MongoDB)

	zap.L().Info("connected to mongodb", zap.String("database", cfg.MongoDB))

	ensureIndexes(ctx)
}

// Close disconnects the client. Called on shutdown.
func Close(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}

func Users() *mongo.Collection      { return DB.Collection("users") }
func Categories() *mongo.Collection { return DB.Collection("categories") }
func Services() *mongo.Collection   { return DB.Collection("services") }
func Orders() *mongo.Collection     { return DB.Collection("orders") }

// ensureIndexes creates the unique constraints and the lookup indexes that
// replace embedded back-reference lists: orders by user/provider and
// services by category/provider are plain indexed queries.
func ensureIndexes(ctx context.Context) {
	unique := options.Index().SetUnique(true)

	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{Users(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		}},
		{Categories(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		}},
		{Services(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "provider", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		}},
		{Orders(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "service", Value: 1}}},
		}},
	}

	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			zap.L().Fatal("failed to create indexes",
				zap.String("collection", s.coll.Name()), zap.Error(err))
		}
	}
}
