// Package catalog serves the static product list shipped with the binary.
package catalog

import (
	_ "embed"
	"fmt"

	"ecom_stationery/internal/models"

	"gopkg.in/yaml.v2"
)

//go:embed products.yaml
var productsYAML []byte

type Catalog struct {
	products []models.Product
}

// Parse decodes a YAML product list.
func Parse(data []byte) (*Catalog, error) {
	const op = "catalog.Parse"

	var products []models.Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Catalog{products: products}, nil
}

// Load parses the embedded product list.
func Load() (*Catalog, error) {
	return Parse(productsYAML)
}

// Products returns a copy so callers cannot mutate the catalog.
func (c *Catalog) Products() []models.Product {
	out := make([]models.Product, len(c.products))
	copy(out, c.products)

	return out
}
