// Package paypal is a thin adapter over the PayPal Orders v2 REST API:
// client-credential token exchange plus order create, amount patch, and
// capture. Every call is attempted once; provider and transport failures are
// returned to the caller as-is.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pp-store-sync/merchant-api/internal/cart"
	"github.com/pp-store-sync/merchant-api/internal/config"
)

const (
	sandboxBaseURL    = "https://api-m.sandbox.paypal.com"
	productionBaseURL = "https://api-m.paypal.com"

	// Tokens are treated as expired this much earlier than advertised, to
	// absorb clock skew between us and the provider.
	tokenExpirySlack = 60 * time.Second
)

var ErrCredentialsNotConfigured = errors.New("paypal: PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET must be set in environment")

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu             sync.Mutex
	cachedToken    string
	tokenExpiresAt time.Time
}

func NewClient(cfg *config.Config) *Client {
	baseURL := sandboxBaseURL
	if cfg.PayPal.Environment == config.EnvProduction {
		baseURL = productionBaseURL
	}
	return &Client{
		baseURL:      baseURL,
		clientID:     cfg.PayPal.ClientID,
		clientSecret: cfg.PayPal.ClientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type amount struct {
	CurrencyCode string     `json:"currency_code"`
	Value        string     `json:"value"`
	Breakdown    *breakdown `json:"breakdown,omitempty"`
}

type breakdown struct {
	ItemTotal cart.Money `json:"item_total"`
	Shipping  cart.Money `json:"shipping"`
	TaxTotal  cart.Money `json:"tax_total"`
}

type orderItem struct {
	Name       string     `json:"name"`
	UnitAmount cart.Money `json:"unit_amount"`
	Quantity   string     `json:"quantity"`
	SKU        string     `json:"sku"`
}

type shippingDetail struct {
	Address address `json:"address"`
}

type address struct {
	AddressLine1 string `json:"address_line_1"`
	AdminArea2   string `json:"admin_area_2"`
	AdminArea1   string `json:"admin_area_1"`
	PostalCode   string `json:"postal_code"`
	CountryCode  string `json:"country_code"`
}

type purchaseUnit struct {
	ReferenceID string          `json:"reference_id"`
	Amount      amount          `json:"amount"`
	Items       []orderItem     `json:"items"`
	Shipping    *shippingDetail `json:"shipping,omitempty"`
}

type createOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
	PaymentSource map[string]any `json:"payment_source"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value amount `json:"value"`
}

// getAccessToken returns the cached bearer token, exchanging client
// credentials for a fresh one when the cache is empty or expired.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachedToken != "" && time.Now().Before(c.tokenExpiresAt) {
		return c.cachedToken, nil
	}

	if c.clientID == "" || c.clientSecret == "" {
		return "", ErrCredentialsNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("paypal: failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("paypal: failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal: token request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("paypal: failed to decode token response: %w", err)
	}

	c.cachedToken = token.AccessToken
	c.tokenExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpirySlack)

	log.Debug().Int("expires_in", token.ExpiresIn).Msg("paypal: access token refreshed")

	return c.cachedToken, nil
}

// CreateOrder creates a capture-intent order for the priced cart and returns
// the provider-assigned order id, which also serves as the payment token.
func (c *Client) CreateOrder(ctx context.Context, items []cart.Item, totals cart.Totals, shipping *cart.Address) (*cart.GatewayOrder, error) {
	payload := createOrderRequest{
		Intent:        "CAPTURE",
		PurchaseUnits: []purchaseUnit{buildPurchaseUnit(items, totals, shipping)},
		PaymentSource: map[string]any{"paypal": map[string]any{}},
	}

	var order orderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v2/orders", payload, &order); err != nil {
		return nil, err
	}
	return &cart.GatewayOrder{ID: order.ID, Status: order.Status}, nil
}

// PatchOrderAmount replaces the default purchase unit's amount breakdown so
// the provider order tracks the updated cart totals.
func (c *Client) PatchOrderAmount(ctx context.Context, orderID string, totals cart.Totals) error {
	payload := []patchOp{{
		Op:    "replace",
		Path:  "/purchase_units/@reference_id=='default'/amount",
		Value: buildAmount(totals),
	}}
	return c.doJSON(ctx, http.MethodPatch, "/v2/orders/"+orderID, payload, nil)
}

// CaptureOrder finalizes payment collection against the order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*cart.GatewayOrder, error) {
	var capture orderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v2/orders/"+orderID+"/capture", struct{}{}, &capture); err != nil {
		return nil, err
	}
	return &cart.GatewayOrder{ID: capture.ID, Status: capture.Status}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("paypal: failed to marshal %s %s payload: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("paypal: failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal: %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paypal: failed to read %s %s response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paypal: %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("paypal: failed to decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func buildPurchaseUnit(items []cart.Item, totals cart.Totals, shipping *cart.Address) purchaseUnit {
	pu := purchaseUnit{
		ReferenceID: "default",
		Amount:      buildAmount(totals),
		Items:       make([]orderItem, 0, len(items)),
	}

	for _, item := range items {
		pu.Items = append(pu.Items, orderItem{
			Name:       item.Name,
			UnitAmount: item.UnitAmount,
			Quantity:   strconv.Itoa(item.Quantity),
			SKU:        item.VariantID,
		})
	}

	if shipping != nil {
		countryCode := shipping.CountryCode
		if countryCode == "" {
			countryCode = "US"
		}
		pu.Shipping = &shippingDetail{Address: address{
			AddressLine1: shipping.AddressLine1,
			AdminArea2:   shipping.AdminArea2,
			AdminArea1:   shipping.AdminArea1,
			PostalCode:   shipping.PostalCode,
			CountryCode:  countryCode,
		}}
	}

	return pu
}

func buildAmount(totals cart.Totals) amount {
	return amount{
		CurrencyCode: totals.Total.CurrencyCode,
		Value:        totals.Total.Value,
		Breakdown: &breakdown{
			ItemTotal: totals.Subtotal,
			Shipping:  totals.Shipping,
			TaxTotal:  totals.Tax,
		},
	}
}
