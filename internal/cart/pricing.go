package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pp-store-sync/merchant-api/internal/catalog"
)

const currencyUSD = "USD"

var (
	freeShippingThreshold = decimal.RequireFromString("50")
	flatShippingFee       = decimal.RequireFromString("5.99")
	taxRate               = decimal.RequireFromString("0.08")
)

// RequestedItem is one line of an inbound cart request, before resolution
// against the catalog.
type RequestedItem struct {
	VariantID string
	Quantity  int
	Name      string
}

// Catalog is the read side of the product feed the pricing engine resolves
// variants against.
type Catalog interface {
	Lookup(id string) (catalog.Product, bool)
}

func usd(d decimal.Decimal) Money {
	return Money{CurrencyCode: currencyUSD, Value: d.StringFixed(2)}
}

// ValidateItems resolves each requested item against the catalog, in input
// order. Unknown variants are reported and excluded from the priced line
// items; out-of-stock variants are reported but stay in the cart with a
// REMOVE_ITEM resolution option. The asymmetry is intentional: a found but
// unavailable item remains visible so the shopper can decide what to do
// with it.
func ValidateItems(cat Catalog, requested []RequestedItem) ([]Item, []ValidationIssue) {
	items := []Item{}
	issues := []ValidationIssue{}

	for _, req := range requested {
		product, ok := cat.Lookup(req.VariantID)
		if !ok {
			issues = append(issues, ValidationIssue{
				Code:      "INVENTORY_ISSUE",
				Type:      IssueInvalidData,
				Message:   fmt.Sprintf("Product variant %s not found in catalog", req.VariantID),
				VariantID: req.VariantID,
				Context:   IssueContext{SpecificIssue: "ITEM_NOT_FOUND"},
			})
			continue
		}

		if product.Availability == catalog.AvailabilityOutOfStock {
			available := 0
			requestedQty := req.Quantity
			issues = append(issues, ValidationIssue{
				Code:        "INVENTORY_ISSUE",
				Type:        IssueBusinessRule,
				Message:     fmt.Sprintf("%s is currently out of stock", product.Title),
				UserMessage: fmt.Sprintf("%s is out of stock. Would you like to try a similar item?", product.Title),
				VariantID:   req.VariantID,
				Context: IssueContext{
					SpecificIssue:     "ITEM_OUT_OF_STOCK",
					AvailableQuantity: &available,
					RequestedQuantity: &requestedQty,
				},
				ResolutionOptions: []ResolutionOption{
					{Action: "REMOVE_ITEM", Label: "Remove from cart"},
				},
			})
		}

		name := req.Name
		if name == "" {
			name = product.Title
		}

		unitPrice, err := decimal.NewFromString(product.Price)
		if err != nil {
			unitPrice = decimal.Zero
		}

		items = append(items, Item{
			VariantID:  req.VariantID,
			Quantity:   req.Quantity,
			Name:       name,
			UnitAmount: Money{CurrencyCode: currencyUSD, Value: product.Price},
			ItemTotal:  usd(unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))),
		})
	}

	return items, issues
}

// CalculateTotals sums unit_amount × quantity across the priced line items.
// Shipping is free at or above the threshold, otherwise the flat fee; tax is
// a fixed percentage of the subtotal. Intermediate sums stay unrounded; only
// the four output fields are rounded to 2 decimals.
func CalculateTotals(items []Item) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		unit, err := decimal.NewFromString(item.UnitAmount.Value)
		if err != nil {
			continue
		}
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	shipping := flatShippingFee
	if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(taxRate)
	total := subtotal.Add(shipping).Add(tax)

	return Totals{
		Subtotal: usd(subtotal),
		Shipping: usd(shipping),
		Tax:      usd(tax),
		Total:    usd(total),
	}
}

// DeriveCartState maps the validation outcome to the cart's status pair. A
// BUSINESS_RULE issue makes the cart INVALID; purely informational gaps
// (unknown variant, missing shipping address) only require more information.
func DeriveCartState(issues []ValidationIssue, hasShipping bool) (CartStatus, ValidationStatus) {
	if len(issues) > 0 {
		for _, issue := range issues {
			if issue.Type == IssueBusinessRule {
				return StatusIncomplete, ValidationInvalid
			}
		}
		return StatusIncomplete, ValidationRequiresInfo
	}
	if !hasShipping {
		return StatusIncomplete, ValidationRequiresInfo
	}
	return StatusCreated, ValidationValid
}
