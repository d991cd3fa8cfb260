package mongodb

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/mamadbah2/alquemist/internal/domain/models"
)

func TestDecimalRoundTripsAsDecimal128(t *testing.T) {
	reg := newRegistry()
	received := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	reorder := decimal.RequireFromString("2.5")

	lot := models.InventoryLot{
		ID:                "lot-1",
		ProductID:         "p1",
		QuantityAvailable: decimal.RequireFromString("12.375"),
		ReceivedDate:      &received,
		Status:            models.LotAvailable,
	}

	raw, err := bson.MarshalWithRegistry(reg, lot)
	require.NoError(t, err)

	assert.Equal(t, bsontype.Decimal128, bson.Raw(raw).Lookup("quantity_available").Type)
	assert.Equal(t, bsontype.String, bson.Raw(raw).Lookup("_id").Type)

	var decoded models.InventoryLot
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &decoded))
	assert.True(t, decoded.QuantityAvailable.Equal(lot.QuantityAvailable))
	require.NotNil(t, decoded.ReceivedDate)
	assert.True(t, decoded.ReceivedDate.Equal(received))

	product := models.Product{ID: "p1", ReorderPoint: &reorder}
	raw, err = bson.MarshalWithRegistry(reg, product)
	require.NoError(t, err)

	var decodedProduct models.Product
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &decodedProduct))
	require.NotNil(t, decodedProduct.ReorderPoint)
	assert.True(t, decodedProduct.ReorderPoint.Equal(reorder))
}

func TestDecodeDecimalFromLegacyNumbers(t *testing.T) {
	reg := newRegistry()

	for name, value := range map[string]any{
		"int32":  int32(7),
		"int64":  int64(7),
		"double": 7.0,
		"string": "7",
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.M{"quantity": value})
			require.NoError(t, err)

			var out struct {
				Quantity decimal.Decimal `bson:"quantity"`
			}
			require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
			assert.True(t, out.Quantity.Equal(decimal.NewFromInt(7)))
		})
	}
}

func TestStorableQuantitiesEncode(t *testing.T) {
	for _, d := range []decimal.Decimal{
		models.MaxQuantity.Sub(decimal.New(1, -models.QuantityScale)),
		models.ScaleQuantity(decimal.RequireFromString("0.1234567890123456789"), decimal.RequireFromString("1.234567890123456789")),
		decimal.New(1, -models.QuantityScale),
	} {
		require.NoError(t, models.CheckQuantity(d))
		_, err := toDecimal128(d)
		assert.NoError(t, err, d.String())
	}
}
