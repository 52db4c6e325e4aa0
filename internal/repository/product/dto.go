package product

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
)

// Hash field names of a product record.
const (
	fieldID            = "id"
	fieldMerchantID    = "merchant_id"
	fieldTitle         = "title"
	fieldDescription   = "description"
	fieldCategory      = "category"
	fieldBrand         = "brand"
	fieldPrice         = "price"
	fieldOriginalPrice = "original_price"
	fieldCurrency      = "currency"
	fieldStock         = "stock"
	fieldURL           = "url"
	fieldImages        = "images"
	fieldCollections   = "collections"
	fieldTags          = "tags"
)

const defaultCurrency = "USD"

// parseHash converts a flat product hash into a catalog.Product.
// Images are a JSON array; collections and tags are comma-separated TAG values.
func parseHash(id string, m map[string]string) (catalog.Product, error) {
	p := catalog.Product{
		ID:          id,
		MerchantID:  m[fieldMerchantID],
		Title:       m[fieldTitle],
		Description: m[fieldDescription],
		Category:    m[fieldCategory],
		Brand:       m[fieldBrand],
		Currency:    m[fieldCurrency],
		URL:         m[fieldURL],
		Collections: splitTags(m[fieldCollections]),
		Tags:        splitTags(m[fieldTags]),
	}
	if v := m[fieldID]; v != "" && v != id {
		return catalog.Product{}, fmt.Errorf("id mismatch: hash holds %q", v)
	}
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}

	price, err := strconv.ParseFloat(m[fieldPrice], 64)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("parse price: %w", err)
	}
	p.Price = price

	if v := m[fieldOriginalPrice]; v != "" {
		op, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return catalog.Product{}, fmt.Errorf("parse original price: %w", err)
		}
		p.OriginalPrice = &op
	}

	if v := m[fieldStock]; v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return catalog.Product{}, fmt.Errorf("parse stock: %w", err)
		}
		p.Stock = stock
	}

	if v := m[fieldImages]; v != "" {
		if err := json.Unmarshal([]byte(v), &p.Images); err != nil {
			return catalog.Product{}, fmt.Errorf("parse images: %w", err)
		}
	}
	return p, nil
}

func splitTags(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
