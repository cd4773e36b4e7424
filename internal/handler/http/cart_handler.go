package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/pp-store-sync/merchant-api/internal/cart"
)

type ItemInput struct {
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Name      string `json:"name,omitempty"`
}

type CreateCartRequest struct {
	Items           []ItemInput       `json:"items" validate:"dive"`
	ShippingAddress *cart.Address     `json:"shipping_address"`
	Customer        *cart.Customer    `json:"customer"`
	PaymentMethod   json.RawMessage   `json:"payment_method"`
	CheckoutFields  []json.RawMessage `json:"checkout_fields"`
}

// UpdateCartRequest uses presence-tracking fields: a key left out of the
// payload keeps the stored value, an explicit null clears it.
type UpdateCartRequest struct {
	Items           []ItemInput                   `json:"items" validate:"dive"`
	ShippingAddress cart.Field[*cart.Address]     `json:"shipping_address"`
	Customer        cart.Field[*cart.Customer]    `json:"customer"`
	PaymentMethod   json.RawMessage               `json:"payment_method"`
	CheckoutFields  cart.Field[[]json.RawMessage] `json:"checkout_fields"`
}

// checkoutFailureResponse mirrors the cart back with the soft-failure
// annotation; deliberately not an HTTP error so the caller can inspect the
// unresolved issues.
type checkoutFailureResponse struct {
	*cart.Cart
	Error string `json:"error"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Post("/merchant-cart", h.handleCreateCart)
	router.Get("/merchant-cart/{id}", h.handleGetCart)
	router.Put("/merchant-cart/{id}", h.handleUpdateCart)
	router.Post("/merchant-cart/{id}/checkout", h.handleCheckout)
}

func (h *CartHandler) handleCreateCart(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateCartRequest

	if err := json.NewDecoder(r.Body).Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode create cart request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return
	}

	if len(requestPayload.Items) == 0 {
		respondWithError(w, http.StatusBadRequest, "items array is required and must not be empty")
		return
	}

	if !h.validatePayload(w, requestPayload) {
		return
	}

	createdCart, err := h.service.CreateCart(r.Context(), cart.CreateInput{
		Items:           toRequestedItems(requestPayload.Items),
		ShippingAddress: requestPayload.ShippingAddress,
		Customer:        requestPayload.Customer,
		CheckoutFields:  requestPayload.CheckoutFields,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create cart via service")
		respondWithErrorDetail(w, mapErrorToStatusCode(err), "Failed to create cart", err.Error())
		return
	}

	// A cart created with validation issues is not an error, but it is not
	// a clean 201 either.
	httpStatus := http.StatusCreated
	if len(createdCart.ValidationIssues) > 0 {
		httpStatus = http.StatusOK
	}

	respondWithJSON(w, httpStatus, createdCart)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")

	foundCart, err := h.service.GetCart(r.Context(), cartID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Cart %s not found", cartID))
			return
		}
		log.Error().Err(err).Str("cart_id", cartID).Msg("Failed to get cart via service")
		respondWithError(w, http.StatusInternalServerError, "Failed to get cart")
		return
	}

	respondWithJSON(w, http.StatusOK, foundCart)
}

func (h *CartHandler) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")

	var requestPayload UpdateCartRequest

	if err := json.NewDecoder(r.Body).Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode update cart request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return
	}

	if !h.validatePayload(w, requestPayload) {
		return
	}

	updatedCart, err := h.service.UpdateCart(r.Context(), cartID, cart.UpdateInput{
		Items:           toRequestedItems(requestPayload.Items),
		ShippingAddress: requestPayload.ShippingAddress,
		Customer:        requestPayload.Customer,
		CheckoutFields:  requestPayload.CheckoutFields,
	})
	if err != nil {
		h.respondUpdateError(w, cartID, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedCart)
}

func (h *CartHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")

	checkedOutCart, err := h.service.Checkout(r.Context(), cartID)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrCartNotFound):
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("Cart %s not found", cartID))
		case errors.Is(err, cart.ErrCartCompleted):
			respondWithError(w, http.StatusBadRequest, "Cart is already completed")
		case errors.Is(err, cart.ErrCartNotCheckoutable):
			respondWithJSON(w, http.StatusOK, checkoutFailureResponse{
				Cart:  checkedOutCart,
				Error: err.Error(),
			})
		default:
			log.Error().Err(err).Str("cart_id", cartID).Msg("Checkout failed via service")
			respondWithErrorDetail(w, mapErrorToStatusCode(err), "Checkout failed", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, checkedOutCart)
}

func (h *CartHandler) respondUpdateError(w http.ResponseWriter, cartID string, err error) {
	switch {
	case errors.Is(err, cart.ErrCartNotFound):
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("Cart %s not found", cartID))
	case errors.Is(err, cart.ErrCartCompleted):
		respondWithError(w, http.StatusBadRequest, "Cannot update a completed cart")
	case errors.Is(err, cart.ErrEmptyItems):
		respondWithError(w, http.StatusBadRequest, "items array is required and must not be empty")
	default:
		log.Error().Err(err).Str("cart_id", cartID).Msg("Failed to update cart via service")
		respondWithErrorDetail(w, mapErrorToStatusCode(err), "Failed to update cart", err.Error())
	}
}

func (h *CartHandler) validatePayload(w http.ResponseWriter, payload interface{}) bool {
	err := h.validate.Struct(payload)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Validation failed",
			Details: formatValidationErrors(validationErrors),
		})
	} else {
		log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
		respondWithError(w, http.StatusInternalServerError, "Internal validation error")
	}
	return false
}

func toRequestedItems(items []ItemInput) []cart.RequestedItem {
	requested := make([]cart.RequestedItem, 0, len(items))
	for _, item := range items {
		requested = append(requested, cart.RequestedItem{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Name:      item.Name,
		})
	}
	return requested
}
