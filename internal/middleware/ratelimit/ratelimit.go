package rateLimit

import (
	"net/http"
	"time"

	httprate "github.com/go-chi/httprate"
	"github.com/go-chi/render"

	resp "ecom_stationery/internal/lib/api/response"
)

// SendOTP guards every endpoint that issues a code: send-otp, signup,
// send-login-otp and forgot-password.
func SendOTP() func(http.Handler) http.Handler {
	return limitByIP(5, 10*time.Minute)
}

// VerifyOTP guards code submission. Codes have no attempt counter, so this
// is the only brake on guessing.
func VerifyOTP() func(http.Handler) http.Handler {
	return limitByIP(10, 5*time.Minute)
}

func Login() func(http.Handler) http.Handler {
	return limitByIP(10, 5*time.Minute)
}

func Coupon() func(http.Handler) http.Handler {
	return limitByIP(30, time.Minute)
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, resp.Error("Too many requests"))
		}),
	)
}
