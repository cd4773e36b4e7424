package cart_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pp-store-sync/merchant-api/internal/cart"
)

func TestField_NullVsAbsent(t *testing.T) {
	type payload struct {
		Customer cart.Field[*cart.Customer] `json:"customer"`
	}

	tests := []struct {
		name      string
		body      string
		wantSet   bool
		wantValue *cart.Customer
	}{
		{name: "absent", body: `{}`, wantSet: false},
		{name: "explicit_null", body: `{"customer": null}`, wantSet: true, wantValue: nil},
		{name: "value", body: `{"customer": {"email": "a@b.test"}}`, wantSet: true, wantValue: &cart.Customer{Email: "a@b.test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))
			assert.Equal(t, tt.wantSet, p.Customer.Set)
			assert.Equal(t, tt.wantValue, p.Customer.Value)
		})
	}
}
