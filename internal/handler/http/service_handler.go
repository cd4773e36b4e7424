package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pp-store-sync/merchant-api/internal/catalog"
)

// feedRoute is the path PayPal Store Sync is configured to fetch the
// catalog from.
const feedRoute = "/catalog/product_catalog.csv"

type discoveryEndpoints struct {
	Catalog    string `json:"catalog"`
	CreateCart string `json:"create_cart"`
	UpdateCart string `json:"update_cart"`
	Checkout   string `json:"checkout"`
}

type discoveryResponse struct {
	Service     string             `json:"service"`
	Environment string             `json:"environment"`
	Endpoints   discoveryEndpoints `json:"endpoints"`
}

// ServiceHandler serves the republished product feed and the discovery
// document.
type ServiceHandler struct {
	store       *catalog.Store
	environment string
}

func NewServiceHandler(store *catalog.Store, environment string) *ServiceHandler {
	return &ServiceHandler{store: store, environment: environment}
}

func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Get(feedRoute, h.handleFeed)
	router.Get("/", h.handleDiscovery)
}

func (h *ServiceHandler) handleFeed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, h.store.Path())
}

func (h *ServiceHandler) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	base := fmt.Sprintf("%s://%s", requestScheme(r), r.Host)

	respondWithJSON(w, http.StatusOK, discoveryResponse{
		Service:     "PP Store Sync Merchant API",
		Environment: h.environment,
		Endpoints: discoveryEndpoints{
			Catalog:    base + feedRoute,
			CreateCart: fmt.Sprintf("POST %s/api/paypal/v1/merchant-cart", base),
			UpdateCart: fmt.Sprintf("PUT  %s/api/paypal/v1/merchant-cart/:id", base),
			Checkout:   fmt.Sprintf("POST %s/api/paypal/v1/merchant-cart/:id/checkout", base),
		},
	})
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
