package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/alquemist/internal/domain/models"
	"github.com/mamadbah2/alquemist/internal/repository"
)

func TestLotQuery(t *testing.T) {
	cutoff := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	cases := map[string]struct {
		filter repository.LotFilter
		want   bson.M
	}{
		"empty": {
			filter: repository.LotFilter{},
			want:   bson.M{},
		},
		"product and status": {
			filter: repository.LotFilter{ProductID: "p1", Status: models.LotAvailable},
			want:   bson.M{"product_id": "p1", "lot_status": "available"},
		},
		"areas": {
			filter: repository.LotFilter{FacilityID: "f1", AreaIDs: []string{"a1", "a2"}},
			want:   bson.M{"facility_id": "f1", "area_id": bson.M{"$in": []string{"a1", "a2"}}},
		},
		"facility without areas matches nothing": {
			filter: repository.LotFilter{AreaIDs: []string{}},
			want:   bson.M{"area_id": bson.M{"$in": []string{}}},
		},
		"expiring before": {
			filter: repository.LotFilter{Status: models.LotAvailable, ExpiringBefore: &cutoff},
			want:   bson.M{"lot_status": "available", "expiration_date": bson.M{"$lt": cutoff}},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, lotQuery(tc.filter))
		})
	}
}

func TestActivityQuery(t *testing.T) {
	from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	cases := map[string]struct {
		filter repository.ActivityFilter
		want   bson.M
	}{
		"entity": {
			filter: repository.ActivityFilter{EntityType: "recipe", EntityID: "r1"},
			want:   bson.M{"entity_type": "recipe", "entity_id": "r1"},
		},
		"inclusive window": {
			filter: repository.ActivityFilter{FacilityID: "f1", Since: &from, Until: &to},
			want:   bson.M{"facility_id": "f1", "timestamp": bson.M{"$gte": from, "$lte": to}},
		},
		"exclusive lower bound": {
			filter: repository.ActivityFilter{FacilityID: "f1", After: &from},
			want:   bson.M{"facility_id": "f1", "timestamp": bson.M{"$gt": from}},
		},
		"limit only": {
			filter: repository.ActivityFilter{Limit: 10},
			want:   bson.M{},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, activityQuery(tc.filter))
		})
	}
}
