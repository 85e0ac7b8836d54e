package health

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

type Response struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Cache     string `json:"cache"`
}

// New reports liveness and which ephemeral backend was selected at startup.
func New(cache string, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, Response{
			Status:    "healthy",
			Timestamp: now().Format(time.RFC3339),
			Cache:     cache,
		})
	}
}
