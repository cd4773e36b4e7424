package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// GatewayOrder is the slice of the provider's order the lifecycle cares
// about: its id (which doubles as the payment token) and status.
type GatewayOrder struct {
	ID     string
	Status string
}

// Gateway wraps the payment provider's order lifecycle. Every call is
// attempted once; failures propagate to the caller unretried.
type Gateway interface {
	CreateOrder(ctx context.Context, items []Item, totals Totals, shipping *Address) (*GatewayOrder, error)
	PatchOrderAmount(ctx context.Context, orderID string, totals Totals) error
	CaptureOrder(ctx context.Context, orderID string) (*GatewayOrder, error)
}

type CreateInput struct {
	Items           []RequestedItem
	ShippingAddress *Address
	Customer        *Customer
	CheckoutFields  []json.RawMessage
}

// UpdateInput carries partial-update semantics: a Field left unset keeps the
// stored value, an explicitly null Field clears it.
type UpdateInput struct {
	Items           []RequestedItem
	ShippingAddress Field[*Address]
	Customer        Field[*Customer]
	CheckoutFields  Field[[]json.RawMessage]
}

type Service interface {
	CreateCart(ctx context.Context, input CreateInput) (*Cart, error)
	UpdateCart(ctx context.Context, id string, input UpdateInput) (*Cart, error)
	Checkout(ctx context.Context, id string) (*Cart, error)
	GetCart(ctx context.Context, id string) (*Cart, error)
}

type service struct {
	store    Store
	catalog  Catalog
	gateway  Gateway
	storeURL string
}

func NewService(store Store, catalog Catalog, gateway Gateway, storeURL string) Service {
	return &service{
		store:    store,
		catalog:  catalog,
		gateway:  gateway,
		storeURL: storeURL,
	}
}

func (s *service) CreateCart(ctx context.Context, input CreateInput) (*Cart, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyItems
	}

	items, issues := ValidateItems(s.catalog, input.Items)
	totals := CalculateTotals(items)
	status, validationStatus := DeriveCartState(issues, input.ShippingAddress != nil)

	order, err := s.gateway.CreateOrder(ctx, items, totals, input.ShippingAddress)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to create provider order")
		return nil, fmt.Errorf("service: failed to create provider order: %w", err)
	}

	checkoutFields := input.CheckoutFields
	if checkoutFields == nil {
		checkoutFields = []json.RawMessage{}
	}

	cart := &Cart{
		ID:               newCartID(),
		Status:           status,
		ValidationStatus: validationStatus,
		ValidationIssues: issues,
		Items:            items,
		Totals:           totals,
		Customer:         input.Customer,
		ShippingAddress:  input.ShippingAddress,
		CheckoutFields:   checkoutFields,
		PaymentMethod:    PaymentMethod{Type: "PAYPAL", Token: order.ID},
		PayPalOrderID:    order.ID,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.store.Save(ctx, cart); err != nil {
		log.Error().Err(err).Str("cart_id", cart.ID).Msg("service: failed to save cart")
		return nil, fmt.Errorf("service: failed to save cart: %w", err)
	}

	log.Info().
		Str("cart_id", cart.ID).
		Str("paypal_order_id", cart.PayPalOrderID).
		Stringer("status", cart.Status).
		Int("issues", len(issues)).
		Msg("service: cart created")

	return cart, nil
}

func (s *service) UpdateCart(ctx context.Context, id string, input UpdateInput) (*Cart, error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusCompleted {
		return nil, ErrCartCompleted
	}
	if len(input.Items) == 0 {
		return nil, ErrEmptyItems
	}

	items, issues := ValidateItems(s.catalog, input.Items)
	totals := CalculateTotals(items)

	if input.ShippingAddress.Set {
		existing.ShippingAddress = input.ShippingAddress.Value
	}
	if input.Customer.Set {
		existing.Customer = input.Customer.Value
	}
	if input.CheckoutFields.Set {
		existing.CheckoutFields = input.CheckoutFields.Value
		if existing.CheckoutFields == nil {
			existing.CheckoutFields = []json.RawMessage{}
		}
	}

	status, validationStatus := DeriveCartState(issues, existing.ShippingAddress != nil)

	if err := s.gateway.PatchOrderAmount(ctx, existing.PayPalOrderID, totals); err != nil {
		log.Error().Err(err).Str("cart_id", id).Str("paypal_order_id", existing.PayPalOrderID).Msg("service: failed to patch provider order")
		return nil, fmt.Errorf("service: failed to patch provider order: %w", err)
	}

	now := time.Now().UTC()
	existing.Status = status
	existing.ValidationStatus = validationStatus
	existing.ValidationIssues = issues
	existing.Items = items
	existing.Totals = totals
	existing.UpdatedAt = &now

	if err := s.store.Save(ctx, existing); err != nil {
		log.Error().Err(err).Str("cart_id", id).Msg("service: failed to save updated cart")
		return nil, fmt.Errorf("service: failed to save updated cart: %w", err)
	}

	log.Info().
		Str("cart_id", id).
		Stringer("status", existing.Status).
		Int("issues", len(issues)).
		Msg("service: cart updated")

	return existing, nil
}

func (s *service) Checkout(ctx context.Context, id string) (*Cart, error) {
	cart, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cart.Status == StatusCompleted {
		return nil, ErrCartCompleted
	}
	if cart.ValidationStatus != ValidationValid {
		log.Warn().
			Str("cart_id", id).
			Stringer("validation_status", cart.ValidationStatus).
			Msg("service: checkout refused, cart is not valid")
		return cart, ErrCartNotCheckoutable
	}

	capture, err := s.gateway.CaptureOrder(ctx, cart.PayPalOrderID)
	if err != nil {
		log.Error().Err(err).Str("cart_id", id).Str("paypal_order_id", cart.PayPalOrderID).Msg("service: failed to capture provider order")
		return nil, fmt.Errorf("service: failed to capture provider order: %w", err)
	}

	orderNumber := newOrderNumber()
	now := time.Now().UTC()

	cart.Status = StatusCompleted
	cart.ValidationStatus = ValidationValid
	cart.ValidationIssues = []ValidationIssue{}
	cart.PaymentConfirmation = &PaymentConfirmation{
		MerchantOrderNumber: orderNumber,
		PayPalOrderID:       capture.ID,
		PayPalStatus:        capture.Status,
		OrderReviewPage:     fmt.Sprintf("%s/orders/%s", s.storeURL, orderNumber),
	}
	cart.CompletedAt = &now

	if err := s.store.Save(ctx, cart); err != nil {
		log.Error().Err(err).Str("cart_id", id).Msg("service: failed to save completed cart")
		return nil, fmt.Errorf("service: failed to save completed cart: %w", err)
	}

	log.Info().
		Str("cart_id", id).
		Str("merchant_order_number", orderNumber).
		Str("paypal_status", capture.Status).
		Msg("service: checkout completed")

	return cart, nil
}

func (s *service) GetCart(ctx context.Context, id string) (*Cart, error) {
	cart, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch cart by id: %w", err)
	}
	return cart, nil
}

func newCartID() string {
	return "CART-" + idSuffix()
}

func newOrderNumber() string {
	return "ORDER-" + idSuffix()
}

func idSuffix() string {
	return strings.ToUpper(uuid.Must(uuid.NewV4()).String())[:8]
}
