package cart_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pp-store-sync/merchant-api/internal/cart"
)

type mockGateway struct {
	createFunc  func(ctx context.Context, items []cart.Item, totals cart.Totals, shipping *cart.Address) (*cart.GatewayOrder, error)
	patchFunc   func(ctx context.Context, orderID string, totals cart.Totals) error
	captureFunc func(ctx context.Context, orderID string) (*cart.GatewayOrder, error)
}

func (m *mockGateway) CreateOrder(ctx context.Context, items []cart.Item, totals cart.Totals, shipping *cart.Address) (*cart.GatewayOrder, error) {
	return m.createFunc(ctx, items, totals, shipping)
}

func (m *mockGateway) PatchOrderAmount(ctx context.Context, orderID string, totals cart.Totals) error {
	return m.patchFunc(ctx, orderID, totals)
}

func (m *mockGateway) CaptureOrder(ctx context.Context, orderID string) (*cart.GatewayOrder, error) {
	return m.captureFunc(ctx, orderID)
}

func happyGateway() *mockGateway {
	return &mockGateway{
		createFunc: func(ctx context.Context, items []cart.Item, totals cart.Totals, shipping *cart.Address) (*cart.GatewayOrder, error) {
			return &cart.GatewayOrder{ID: "PAYPAL-ORDER-1", Status: "CREATED"}, nil
		},
		patchFunc: func(ctx context.Context, orderID string, totals cart.Totals) error {
			return nil
		},
		captureFunc: func(ctx context.Context, orderID string) (*cart.GatewayOrder, error) {
			return &cart.GatewayOrder{ID: orderID, Status: "COMPLETED"}, nil
		},
	}
}

const testStoreURL = "https://store.test"

func newTestService(gateway cart.Gateway) (cart.Service, cart.Store) {
	store := cart.NewMemoryStore()
	return cart.NewService(store, testCatalog(), gateway, testStoreURL), store
}

func validAddress() *cart.Address {
	return &cart.Address{
		AddressLine1: "1 Main St",
		AdminArea2:   "San Jose",
		AdminArea1:   "CA",
		PostalCode:   "95131",
		CountryCode:  "US",
	}
}

func TestService_CreateCart(t *testing.T) {
	tests := []struct {
		name                 string
		input                cart.CreateInput
		gateway              *mockGateway
		wantErr              error
		wantStatus           cart.CartStatus
		wantValidationStatus cart.ValidationStatus
		wantIssues           int
	}{
		{
			name:    "empty_items",
			input:   cart.CreateInput{},
			gateway: happyGateway(),
			wantErr: cart.ErrEmptyItems,
		},
		{
			name: "valid_with_shipping",
			input: cart.CreateInput{
				Items:           []cart.RequestedItem{{VariantID: "V1", Quantity: 2}},
				ShippingAddress: validAddress(),
			},
			gateway:              happyGateway(),
			wantStatus:           cart.StatusCreated,
			wantValidationStatus: cart.ValidationValid,
		},
		{
			name: "no_shipping_requires_info",
			input: cart.CreateInput{
				Items: []cart.RequestedItem{{VariantID: "V1", Quantity: 2}},
			},
			gateway:              happyGateway(),
			wantStatus:           cart.StatusIncomplete,
			wantValidationStatus: cart.ValidationRequiresInfo,
		},
		{
			name: "out_of_stock_is_invalid",
			input: cart.CreateInput{
				Items:           []cart.RequestedItem{{VariantID: "V3", Quantity: 1}},
				ShippingAddress: validAddress(),
			},
			gateway:              happyGateway(),
			wantStatus:           cart.StatusIncomplete,
			wantValidationStatus: cart.ValidationInvalid,
			wantIssues:           1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(tt.gateway)

			created, err := svc.CreateCart(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}

			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(created.ID, "CART-"), "cart id %q should have CART- prefix", created.ID)
			assert.Equal(t, tt.wantStatus, created.Status)
			assert.Equal(t, tt.wantValidationStatus, created.ValidationStatus)
			assert.Len(t, created.ValidationIssues, tt.wantIssues)
			assert.Equal(t, cart.PaymentMethod{Type: "PAYPAL", Token: "PAYPAL-ORDER-1"}, created.PaymentMethod)
			assert.Equal(t, "PAYPAL-ORDER-1", created.PayPalOrderID)
			assert.False(t, created.CreatedAt.IsZero())
			assert.NotNil(t, created.CheckoutFields)

			stored, err := store.GetByID(context.Background(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, stored.ID)
		})
	}
}

func TestService_CreateCart_GatewayFailure(t *testing.T) {
	gateway := happyGateway()
	gateway.createFunc = func(ctx context.Context, items []cart.Item, totals cart.Totals, shipping *cart.Address) (*cart.GatewayOrder, error) {
		return nil, errors.New("provider returned 422")
	}
	svc, _ := newTestService(gateway)

	_, err := svc.CreateCart(context.Background(), cart.CreateInput{
		Items: []cart.RequestedItem{{VariantID: "V1", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider returned 422")
}

func createTestCart(t *testing.T, svc cart.Service, input cart.CreateInput) *cart.Cart {
	t.Helper()
	created, err := svc.CreateCart(context.Background(), input)
	require.NoError(t, err)
	return created
}

func TestService_UpdateCart_NotFound(t *testing.T) {
	svc, _ := newTestService(happyGateway())

	_, err := svc.UpdateCart(context.Background(), "CART-UNKNOWN", cart.UpdateInput{
		Items: []cart.RequestedItem{{VariantID: "V1", Quantity: 1}},
	})
	assert.True(t, errors.Is(err, cart.ErrCartNotFound))
}

func TestService_UpdateCart_EmptyItems(t *testing.T) {
	svc, _ := newTestService(happyGateway())
	created := createTestCart(t, svc, cart.CreateInput{
		Items: []cart.RequestedItem{{VariantID: "V1", Quantity: 1}},
	})

	_, err := svc.UpdateCart(context.Background(), created.ID, cart.UpdateInput{})
	assert.True(t, errors.Is(err, cart.ErrEmptyItems))
}

func TestService_UpdateCart_PatchesExistingOrder(t *testing.T) {
	var patchedOrderID string
	var patchedTotals cart.Totals

	gateway := happyGateway()
	gateway.patchFunc = func(ctx context.Context, orderID string, totals cart.Totals) error {
		patchedOrderID = orderID
		patchedTotals = totals
		return nil
	}

	svc, _ := newTestService(gateway)
	created := createTestCart(t, svc, cart.CreateInput{
		Items: []cart.RequestedItem{{VariantID: "V1", Quantity: 1}},
	})

	updated, err := svc.UpdateCart(context.Background(), created.ID, cart.UpdateInput{
		Items: []cart.RequestedItem{{VariantID: "V2", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "PAYPAL-ORDER-1", patchedOrderID)
	assert.Equal(t, "59.00", patchedTotals.Subtotal.Value)
	assert.Equal(t, "63.72", updated.Totals.Total.Value)
	require.NotNil(t, updated.UpdatedAt)
	// The payment token survives updates untouched.
	assert.Equal(t, created.PaymentMethod, updated.PaymentMethod)
}

func TestService_UpdateCart_PartialMerge(t *testing.T) {
	customer := &cart.Customer{Email: "shopper@example.com"}
	items := []cart.RequestedItem{{VariantID: "V1", Quantity: 1}}

	tests := []struct {
		name         string
		input        cart.UpdateInput
		wantShipping bool
		wantCustomer *cart.Customer
	}{
		{
			name:         "absent_fields_keep_existing",
			input:        cart.UpdateInput{Items: items},
			wantShipping: true,
			wantCustomer: customer,
		},
		{
			name: "explicit_null_clears",
			input: cart.UpdateInput{
				Items:           items,
				ShippingAddress: cart.Field[*cart.Address]{Set: true, Value: nil},
				Customer:        cart.Field[*cart.Customer]{Set: true, Value: nil},
			},
			wantShipping: false,
			wantCustomer: nil,
		},
		{
			name: "supplied_value_replaces",
			input: cart.UpdateInput{
				Items:    items,
				Customer: cart.Field[*cart.Customer]{Set: true, Value: &cart.Customer{Email: "other@example.com"}},
			},
			wantShipping: true,
			wantCustomer: &cart.Customer{Email: "other@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(happyGateway())
			created := createTestCart(t, svc, cart.CreateInput{
				Items:           items,
				ShippingAddress: validAddress(),
				Customer:        customer,
			})

			updated, err := svc.UpdateCart(context.Background(), created.ID, tt.input)
			require.NoError(t, err)

			if tt.wantShipping {
				assert.NotNil(t, updated.ShippingAddress)
				assert.Equal(t, cart.ValidationValid, updated.ValidationStatus)
			} else {
				assert.Nil(t, updated.ShippingAddress)
				assert.Equal(t, cart.ValidationRequiresInfo, updated.ValidationStatus)
			}
			assert.Equal(t, tt.wantCustomer, updated.Customer)
		})
	}
}

func TestService_Checkout_NotFound(t *testing.T) {
	svc, _ := newTestService(happyGateway())

	_, err := svc.Checkout(context.Background(), "CART-UNKNOWN")
	assert.True(t, errors.Is(err, cart.ErrCartNotFound))
}

func TestService_Checkout_NotValid(t *testing.T) {
	svc, store := newTestService(happyGateway())
	created := createTestCart(t, svc, cart.CreateInput{
		Items: []cart.RequestedItem{{VariantID: "V1", Quantity: 1}},
	})

	returned, err := svc.Checkout(context.Background(), created.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cart.ErrCartNotCheckoutable))

	// The cart comes back for inspection, unchanged.
	require.NotNil(t, returned)
	assert.Equal(t, cart.StatusIncomplete, returned.Status)

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.StatusIncomplete, stored.Status)
	assert.Nil(t, stored.PaymentConfirmation)
}

func TestService_Checkout_Success(t *testing.T) {
	svc, store := newTestService(happyGateway())
	created := createTestCart(t, svc, cart.CreateInput{
		Items:           []cart.RequestedItem{{VariantID: "V1", Quantity: 2}},
		ShippingAddress: validAddress(),
	})

	completed, err := svc.Checkout(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, cart.StatusCompleted, completed.Status)
	assert.Equal(t, cart.ValidationValid, completed.ValidationStatus)
	assert.Empty(t, completed.ValidationIssues)
	require.NotNil(t, completed.CompletedAt)

	confirmation := completed.PaymentConfirmation
	require.NotNil(t, confirmation)
	assert.True(t, strings.HasPrefix(confirmation.MerchantOrderNumber, "ORDER-"))
	assert.Equal(t, "PAYPAL-ORDER-1", confirmation.PayPalOrderID)
	assert.Equal(t, "COMPLETED", confirmation.PayPalStatus)
	assert.Equal(t, testStoreURL+"/orders/"+confirmation.MerchantOrderNumber, confirmation.OrderReviewPage)

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.StatusCompleted, stored.Status)
}

func TestService_CompletedCartIsTerminal(t *testing.T) {
	svc, store := newTestService(happyGateway())
	created := createTestCart(t, svc, cart.CreateInput{
		Items:           []cart.RequestedItem{{VariantID: "V1", Quantity: 2}},
		ShippingAddress: validAddress(),
	})

	completed, err := svc.Checkout(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = svc.UpdateCart(context.Background(), created.ID, cart.UpdateInput{
		Items: []cart.RequestedItem{{VariantID: "V2", Quantity: 1}},
	})
	assert.True(t, errors.Is(err, cart.ErrCartCompleted))

	_, err = svc.Checkout(context.Background(), created.ID)
	assert.True(t, errors.Is(err, cart.ErrCartCompleted))

	// The stored record is untouched by the rejected mutations.
	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, completed.Totals, stored.Totals)
	assert.Equal(t, completed.PaymentConfirmation, stored.PaymentConfirmation)
}

func TestService_Checkout_CaptureFailure(t *testing.T) {
	gateway := happyGateway()
	gateway.captureFunc = func(ctx context.Context, orderID string) (*cart.GatewayOrder, error) {
		return nil, errors.New("capture declined")
	}

	svc, store := newTestService(gateway)
	created := createTestCart(t, svc, cart.CreateInput{
		Items:           []cart.RequestedItem{{VariantID: "V1", Quantity: 1}},
		ShippingAddress: validAddress(),
	})

	_, err := svc.Checkout(context.Background(), created.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture declined")

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, cart.StatusCompleted, stored.Status)
}
