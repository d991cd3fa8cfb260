package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
)

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return doc, notFound(err)
	}
	return doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return docs, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc any) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	return nil
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("replace in %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func sortBy(field string, order int) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: field, Value: order}, {Key: "_id", Value: 1}})
}

// setIfNotEmpty adds key=value to filter when value is non-empty.
func setIfNotEmpty(filter bson.M, key, value string) {
	if value != "" {
		filter[key] = value
	}
}

type facilityRepo struct{ coll *mongo.Collection }

func (r facilityRepo) Insert(ctx context.Context, f models.Facility) error {
	return insert(ctx, r.coll, f)
}

func (r facilityRepo) Get(ctx context.Context, id string) (models.Facility, error) {
	return findOne[models.Facility](ctx, r.coll, bson.M{"_id": id})
}

func (r facilityRepo) List(ctx context.Context, filter repository.FacilityFilter) ([]models.Facility, error) {
	q := bson.M{}
	setIfNotEmpty(q, "company_id", filter.CompanyID)
	setIfNotEmpty(q, "status", filter.Status)
	return findAll[models.Facility](ctx, r.coll, q, sortBy("name", 1))
}

func (r facilityRepo) Update(ctx context.Context, f models.Facility) error {
	return replace(ctx, r.coll, f.ID, f)
}

type areaRepo struct{ coll *mongo.Collection }

func (r areaRepo) Insert(ctx context.Context, a models.Area) error {
	return insert(ctx, r.coll, a)
}

func (r areaRepo) Get(ctx context.Context, id string) (models.Area, error) {
	return findOne[models.Area](ctx, r.coll, bson.M{"_id": id})
}

func (r areaRepo) List(ctx context.Context, filter repository.AreaFilter) ([]models.Area, error) {
	q := bson.M{}
	setIfNotEmpty(q, "facility_id", filter.FacilityID)
	setIfNotEmpty(q, "status", filter.Status)
	return findAll[models.Area](ctx, r.coll, q, sortBy("name", 1))
}

func (r areaRepo) Update(ctx context.Context, a models.Area) error {
	return replace(ctx, r.coll, a.ID, a)
}

type productRepo struct{ coll *mongo.Collection }

func (r productRepo) Insert(ctx context.Context, p models.Product) error {
	return insert(ctx, r.coll, p)
}

func (r productRepo) Get(ctx context.Context, id string) (models.Product, error) {
	return findOne[models.Product](ctx, r.coll, bson.M{"_id": id})
}

func (r productRepo) FindBySKU(ctx context.Context, companyID, sku string) (models.Product, error) {
	pattern := "^" + regexp.QuoteMeta(sku) + "$"
	return findOne[models.Product](ctx, r.coll, bson.M{
		"company_id": companyID,
		"sku":        bson.M{"$regex": pattern, "$options": "i"},
	})
}

func (r productRepo) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	q := bson.M{}
	setIfNotEmpty(q, "company_id", filter.CompanyID)
	setIfNotEmpty(q, "category", filter.Category)
	setIfNotEmpty(q, "status", filter.Status)
	return findAll[models.Product](ctx, r.coll, q, sortBy("sku", 1))
}

func (r productRepo) Update(ctx context.Context, p models.Product) error {
	return replace(ctx, r.coll, p.ID, p)
}

type lotRepo struct{ coll *mongo.Collection }

func (r lotRepo) Insert(ctx context.Context, l models.InventoryLot) error {
	return insert(ctx, r.coll, l)
}

func (r lotRepo) Get(ctx context.Context, id string) (models.InventoryLot, error) {
	return findOne[models.InventoryLot](ctx, r.coll, bson.M{"_id": id})
}

func (r lotRepo) List(ctx context.Context, filter repository.LotFilter) ([]models.InventoryLot, error) {
	return findAll[models.InventoryLot](ctx, r.coll, lotQuery(filter), sortBy("created_at", 1))
}

// lotQuery treats a non-nil empty AreaIDs as "no area matches".
func lotQuery(filter repository.LotFilter) bson.M {
	q := bson.M{}
	setIfNotEmpty(q, "product_id", filter.ProductID)
	setIfNotEmpty(q, "facility_id", filter.FacilityID)
	setIfNotEmpty(q, "lot_status", string(filter.Status))
	if filter.AreaIDs != nil {
		q["area_id"] = bson.M{"$in": filter.AreaIDs}
	}
	if filter.ExpiringBefore != nil {
		q["expiration_date"] = bson.M{"$lt": *filter.ExpiringBefore}
	}
	return q
}

func (r lotRepo) Update(ctx context.Context, l models.InventoryLot) error {
	return replace(ctx, r.coll, l.ID, l)
}

// Decrement guards the update with quantity_available >= qty so the ledger
// cannot go negative even under concurrent writers.
func (r lotRepo) Decrement(ctx context.Context, id string, qty decimal.Decimal, at time.Time) error {
	amount, err := toDecimal128(qty)
	if err != nil {
		return err
	}
	negated, err := toDecimal128(qty.Neg())
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "quantity_available": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"quantity_available": negated},
			"$set": bson.M{"updated_at": at},
		})
	if err != nil {
		return fmt.Errorf("decrement lot %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return repository.ErrInsufficientQuantity
}

type recipeRepo struct{ coll *mongo.Collection }

func (r recipeRepo) Insert(ctx context.Context, rec models.Recipe) error {
	return insert(ctx, r.coll, rec)
}

func (r recipeRepo) Get(ctx context.Context, id string) (models.Recipe, error) {
	return findOne[models.Recipe](ctx, r.coll, bson.M{"_id": id})
}

func (r recipeRepo) List(ctx context.Context, filter repository.RecipeFilter) ([]models.Recipe, error) {
	q := bson.M{}
	setIfNotEmpty(q, "company_id", filter.CompanyID)
	setIfNotEmpty(q, "category", filter.Category)
	setIfNotEmpty(q, "status", filter.Status)
	return findAll[models.Recipe](ctx, r.coll, q, sortBy("name", 1))
}

func (r recipeRepo) Update(ctx context.Context, rec models.Recipe) error {
	return replace(ctx, r.coll, rec.ID, rec)
}

func (r recipeRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"last_used_date": at, "updated_at": at},
	})
	if err != nil {
		return fmt.Errorf("mark recipe %s used: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type activityRepo struct{ coll *mongo.Collection }

func (r activityRepo) Append(ctx context.Context, rec models.ActivityRecord) error {
	if err := insert(ctx, r.coll, rec); err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) && writeErr.HasErrorCode(11000) {
			return fmt.Errorf("activity %s already recorded: %w", rec.ID, err)
		}
		return err
	}
	return nil
}

func (r activityRepo) Get(ctx context.Context, id string) (models.ActivityRecord, error) {
	return findOne[models.ActivityRecord](ctx, r.coll, bson.M{"_id": id})
}

func (r activityRepo) List(ctx context.Context, filter repository.ActivityFilter) ([]models.ActivityRecord, error) {
	opts := sortBy("timestamp", -1)
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	return findAll[models.ActivityRecord](ctx, r.coll, activityQuery(filter), opts)
}

func activityQuery(filter repository.ActivityFilter) bson.M {
	q := bson.M{}
	setIfNotEmpty(q, "entity_type", filter.EntityType)
	setIfNotEmpty(q, "entity_id", filter.EntityID)
	setIfNotEmpty(q, "facility_id", filter.FacilityID)

	window := bson.M{}
	if filter.Since != nil {
		window["$gte"] = *filter.Since
	}
	if filter.After != nil {
		window["$gt"] = *filter.After
	}
	if filter.Until != nil {
		window["$lte"] = *filter.Until
	}
	if len(window) > 0 {
		q["timestamp"] = window
	}
	return q
}
