package products

import (
	"net/http"

	"ecom_stationery/internal/models"

	"github.com/go-chi/render"
)

type ProductLister interface {
	Products() []models.Product
}

// New serves the catalog as a bare JSON array.
func New(lister ProductLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, lister.Products())
	}
}
