package cart

import (
	"encoding/json"
	"time"
)

type CartStatus string

const (
	StatusIncomplete CartStatus = "INCOMPLETE"
	StatusCreated    CartStatus = "CREATED"
	StatusCompleted  CartStatus = "COMPLETED"
)

func (cs CartStatus) String() string {
	return string(cs)
}

type ValidationStatus string

const (
	ValidationValid        ValidationStatus = "VALID"
	ValidationInvalid      ValidationStatus = "INVALID"
	ValidationRequiresInfo ValidationStatus = "REQUIRES_ADDITIONAL_INFORMATION"
)

func (vs ValidationStatus) String() string {
	return string(vs)
}

type IssueType string

const (
	IssueInvalidData  IssueType = "INVALID_DATA"
	IssueBusinessRule IssueType = "BUSINESS_RULE"
)

// Money is a currency-tagged decimal string, always 2 decimal places for USD.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type Item struct {
	VariantID  string `json:"variant_id"`
	Quantity   int    `json:"quantity"`
	Name       string `json:"name"`
	UnitAmount Money  `json:"unit_amount"`
	ItemTotal  Money  `json:"item_total"`
}

type Totals struct {
	Subtotal Money `json:"subtotal"`
	Shipping Money `json:"shipping"`
	Tax      Money `json:"tax"`
	Total    Money `json:"total"`
}

type IssueContext struct {
	SpecificIssue     string `json:"specific_issue"`
	AvailableQuantity *int   `json:"available_quantity,omitempty"`
	RequestedQuantity *int   `json:"requested_quantity,omitempty"`
}

type ResolutionOption struct {
	Action string `json:"action"`
	Label  string `json:"label"`
}

// ValidationIssue is produced fresh on every validation pass; it is never
// persisted apart from the cart snapshot that generated it.
type ValidationIssue struct {
	Code              string             `json:"code"`
	Type              IssueType          `json:"type"`
	Message           string             `json:"message"`
	UserMessage       string             `json:"user_message,omitempty"`
	VariantID         string             `json:"variant_id"`
	Context           IssueContext       `json:"context"`
	ResolutionOptions []ResolutionOption `json:"resolution_options,omitempty"`
}

type Address struct {
	AddressLine1 string `json:"address_line_1"`
	AdminArea2   string `json:"admin_area_2"`
	AdminArea1   string `json:"admin_area_1"`
	PostalCode   string `json:"postal_code"`
	CountryCode  string `json:"country_code,omitempty"`
}

type Customer struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type PaymentMethod struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type PaymentConfirmation struct {
	MerchantOrderNumber string `json:"merchant_order_number"`
	PayPalOrderID       string `json:"paypal_order_id"`
	PayPalStatus        string `json:"paypal_status"`
	OrderReviewPage     string `json:"order_review_page"`
}

// Cart is the record owned by the lifecycle service. Once Status reaches
// COMPLETED no further mutation is permitted.
type Cart struct {
	ID                  string               `json:"id"`
	Status              CartStatus           `json:"status"`
	ValidationStatus    ValidationStatus     `json:"validation_status"`
	ValidationIssues    []ValidationIssue    `json:"validation_issues"`
	Items               []Item               `json:"items"`
	Totals              Totals               `json:"totals"`
	Customer            *Customer            `json:"customer"`
	ShippingAddress     *Address             `json:"shipping_address"`
	CheckoutFields      []json.RawMessage    `json:"checkout_fields"`
	PaymentMethod       PaymentMethod        `json:"payment_method"`
	PayPalOrderID       string               `json:"paypal_order_id"`
	PaymentConfirmation *PaymentConfirmation `json:"payment_confirmation,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           *time.Time           `json:"updated_at,omitempty"`
	CompletedAt         *time.Time           `json:"completed_at,omitempty"`
}

// Clone returns a deep enough copy that callers can hand out without the
// store's record being mutated through shared slices.
func (c *Cart) Clone() *Cart {
	clone := *c
	clone.ValidationIssues = append([]ValidationIssue(nil), c.ValidationIssues...)
	clone.Items = append([]Item(nil), c.Items...)
	clone.CheckoutFields = append([]json.RawMessage(nil), c.CheckoutFields...)
	if c.Customer != nil {
		customer := *c.Customer
		clone.Customer = &customer
	}
	if c.ShippingAddress != nil {
		addr := *c.ShippingAddress
		clone.ShippingAddress = &addr
	}
	if c.PaymentConfirmation != nil {
		confirmation := *c.PaymentConfirmation
		clone.PaymentConfirmation = &confirmation
	}
	if c.UpdatedAt != nil {
		updated := *c.UpdatedAt
		clone.UpdatedAt = &updated
	}
	if c.CompletedAt != nil {
		completed := *c.CompletedAt
		clone.CompletedAt = &completed
	}
	return &clone
}
