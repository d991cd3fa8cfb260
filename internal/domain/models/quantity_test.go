package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckQuantity(t *testing.T) {
	cases := map[string]bool{
		"0":                                true,
		"12.5":                             true,
		"0.000000000001":                   true,
		"-3.25":                            true,
		"999999999999999999.999999999999":  true,
		"0.0000000000001":                  false,
		"1000000000000000000":              false,
		"0.1524157875323883675019051998750": false,
	}
	for raw, ok := range cases {
		t.Run(raw, func(t *testing.T) {
			err := CheckQuantity(decimal.RequireFromString(raw))
			if ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestScaleQuantityRounds(t *testing.T) {
	got := ScaleQuantity(decimal.RequireFromString("0.1234567890123456789"), decimal.RequireFromString("1.234567890123456789"))
	assert.Equal(t, "0.152415787532", got.String())
	assert.NoError(t, CheckQuantity(got))

	got = ScaleQuantity(decimal.RequireFromString("0.000000000003"), decimal.RequireFromString("0.5"))
	assert.Equal(t, "0.000000000002", got.String())
}
