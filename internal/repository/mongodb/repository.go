package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/alquemist/internal/repository"
)

const (
	facilitiesCollection = "facilities"
	areasCollection      = "areas"
	productsCollection   = "products"
	lotsCollection       = "inventory_items"
	recipesCollection    = "recipes"
	activitiesCollection = "activities"
)

var _ repository.Store = (*MongoDBRepository)(nil)

// MongoDBRepository implements repository.Store on top of MongoDB. Transactions
// require a replica set or sharded cluster.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository connects to MongoDB, verifies the connection and
// ensures the indexes the application relies on.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri).SetRegistry(newRegistry())
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		productsCollection: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "sku", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		lotsCollection: {
			{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "area_id", Value: 1}, {Key: "lot_status", Value: 1}}},
			{Keys: bson.D{{Key: "expiration_date", Value: 1}}},
		},
		areasCollection: {
			{Keys: bson.D{{Key: "facility_id", Value: 1}}},
		},
		activitiesCollection: {
			{Keys: bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "facility_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	r.logger.Debug("mongodb indexes ensured", zap.Int("collections", len(indexes)))
	return nil
}

// Facilities returns the facility repository.
func (r *MongoDBRepository) Facilities() repository.FacilityRepository {
	return facilityRepo{r.db.Collection(facilitiesCollection)}
}

// Areas returns the area repository.
func (r *MongoDBRepository) Areas() repository.AreaRepository {
	return areaRepo{r.db.Collection(areasCollection)}
}

// Products returns the product repository.
func (r *MongoDBRepository) Products() repository.ProductRepository {
	return productRepo{r.db.Collection(productsCollection)}
}

// Lots returns the inventory ledger.
func (r *MongoDBRepository) Lots() repository.LotRepository {
	return lotRepo{r.db.Collection(lotsCollection)}
}

// Recipes returns the recipe repository.
func (r *MongoDBRepository) Recipes() repository.RecipeRepository {
	return recipeRepo{r.db.Collection(recipesCollection)}
}

// Activities returns the append-only activity repository.
func (r *MongoDBRepository) Activities() repository.ActivityRepository {
	return activityRepo{r.db.Collection(activitiesCollection)}
}

// RunInTransaction runs fn inside a MongoDB session transaction. The session
// travels in the context handed to fn, so the same repositories participate.
func (r *MongoDBRepository) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, r)
	})
	return err
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
