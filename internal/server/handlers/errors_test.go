package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
	"github.com/mamadbah2/alquemist/internal/service/recipes"
)

func TestStatusFor(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"not found":    {apperr.NotFound("recipe", "r1"), http.StatusNotFound},
		"invalid":      {apperr.Invalid("bad"), http.StatusBadRequest},
		"conflict":     {apperr.Conflict("dup"), http.StatusConflict},
		"inactive":     {fmt.Errorf("recipe r1: %w", recipes.ErrRecipeInactive), http.StatusUnprocessableEntity},
		"insufficient": {&recipes.InsufficientStockError{ProductID: "p"}, http.StatusUnprocessableEntity},
		"selection":    {recipes.ErrNoLotSelection, http.StatusUnprocessableEntity},
		"unknown":      {errors.New("mongo down"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}
