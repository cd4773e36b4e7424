package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Availability values as they appear in the feed file.
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOutOfStock = "out_of_stock"
	AvailabilityPreorder   = "preorder"
)

// Product is one purchasable variant from the product feed. Immutable once
// loaded.
type Product struct {
	ID           string `json:"id"`
	ItemGroupID  string `json:"item_group_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Link         string `json:"link"`
	ImageLink    string `json:"image_link"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
}

// Store is the in-memory variant lookup table built from the CSV feed.
// Readers always see either the previous mapping or the fully parsed new
// one, never a half-built map.
type Store struct {
	path string

	mu       sync.RWMutex
	products map[string]Product
}

func NewStore(path string) *Store {
	return &Store{path: path, products: map[string]Product{}}
}

// Load parses the whole feed file and swaps the lookup table in one step.
// Rows that cannot be parsed or have no id are skipped.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("catalog: failed to open feed file %q: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	products := make(map[string]Product)
	header := true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("catalog: skipping malformed feed row")
			continue
		}
		if header {
			header = false
			continue
		}

		p := productFromRecord(record)
		if p.ID == "" {
			continue
		}
		products[p.ID] = p
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()

	log.Info().Int("count", len(products)).Str("path", s.path).Msg("catalog: loaded product variants")

	return nil
}

// Lookup returns the product for a variant id.
func (s *Store) Lookup(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	return p, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.products)
}

// Path returns the location of the feed file backing this store.
func (s *Store) Path() string {
	return s.path
}

func productFromRecord(record []string) Product {
	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	return Product{
		ID:           field(0),
		ItemGroupID:  field(1),
		Title:        field(2),
		Description:  field(3),
		Link:         field(4),
		ImageLink:    field(5),
		Price:        parsePrice(field(6)),
		Availability: field(7),
	}
}

// parsePrice extracts the numeric part of a "24.99 USD" feed value.
func parsePrice(priceField string) string {
	if priceField == "" {
		return "0.00"
	}
	return strings.SplitN(priceField, " ", 2)[0]
}
