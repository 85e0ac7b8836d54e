package catalog_test

import (
	"testing"

	"ecom_stationery/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	products := c.Products()
	require.Len(t, products, 8)

	first := products[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "A1 Bundle Sheet", first.Name)
	assert.InDelta(t, 400.0, first.Price, 0.001)
	assert.InDelta(t, 450.0, first.OriginalPrice, 0.001)
	assert.Equal(t, "Bundle Sheets", first.Category)
	require.Len(t, first.Variants, 3)
	assert.Equal(t, "1 kg", first.Variants[2].Weight)
	assert.InDelta(t, 1400.0, first.Variants[2].Price, 0.001)

	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID)
		assert.NotEmpty(t, p.Variants, p.Name)
	}
}

func TestProducts_ReturnsCopy(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	products := c.Products()
	products[0].Name = "changed"

	assert.Equal(t, "A1 Bundle Sheet", c.Products()[0].Name)
}

func TestParse_Invalid(t *testing.T) {
	_, err := catalog.Parse([]byte("- id: [oops"))
	require.Error(t, err)
}
