package http

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&domain.ConflictError{Resource: "balances", Cause: errors.New("lock timeout")}, 409, "CONCURRENT_MODIFICATION"},
		{&domain.InsufficientStockError{WarehouseID: "A", PartID: "X", Available: "1", Requested: "2"}, 409, "INSUFFICIENT_STOCK"},
		{&domain.StocktakeStateError{StocktakeID: "s", Status: "CANCELLED", Operation: "complete"}, 409, "STOCKTAKE_STATE"},
		{&domain.QuantityError{PartID: "X", Category: "DISCRETE", Quantity: "2.5", Reason: "fracción"}, 400, "INVALID_QUANTITY"},
		{&domain.UnknownReferenceError{WarehouseID: "Z", Reason: "no existe"}, 404, "UNKNOWN_REFERENCE"},
		{domain.ErrNotFound, 404, "NOT_FOUND"},
		{domain.ErrInvalidInput, 400, "VALIDATION"},
		{errors.New("boom"), 500, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return writeError(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Code)
			if tc.code == "CONCURRENT_MODIFICATION" {
				assert.Equal(t, "1", resp.Header.Get("Retry-After"))
				assert.True(t, body.Retryable)
			} else {
				assert.Empty(t, resp.Header.Get("Retry-After"))
			}
		})
	}
}
