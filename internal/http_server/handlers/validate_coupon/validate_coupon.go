package validateCoupon

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"ecom_stationery/internal/coupon"
	resp "ecom_stationery/internal/lib/api/response"
	sl "ecom_stationery/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"
)

type Request struct {
	CouponCode string          `json:"coupon_code"`
	CartValue  decimal.Decimal `json:"cart_value"`
}

type Response struct {
	resp.Response
	Valid          bool    `json:"valid"`
	DiscountAmount float64 `json:"discount_amount"`
	DiscountType   string  `json:"discount_type"`
	CouponCode     string  `json:"coupon_code"`
	Message        string  `json:"message"`
}

type CouponBook interface {
	Apply(code string, cartValue decimal.Decimal) (coupon.Result, error)
}

func New(log *slog.Logger, book CouponBook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.validateCoupon.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			resp.Fail(w, r, http.StatusBadRequest, "Failed to decode request")

			return
		}

		res, err := book.Apply(req.CouponCode, req.CartValue)
		if err != nil {
			var minErr *coupon.MinimumError

			switch {
			case errors.Is(err, coupon.ErrCodeRequired):
				resp.Fail(w, r, http.StatusBadRequest, "Coupon code is required")
			case errors.As(err, &minErr):
				resp.Fail(w, r, http.StatusBadRequest,
					fmt.Sprintf("Minimum order value of ₹%s required for this coupon", minErr.MinOrder))
			default:
				resp.Fail(w, r, http.StatusBadRequest, "Invalid coupon code")
			}

			return
		}

		log.Debug("coupon applied", slog.String("code", res.Code))

		render.JSON(w, r, Response{
			Response:       resp.OK(),
			Valid:          true,
			DiscountAmount: res.Discount.InexactFloat64(),
			DiscountType:   res.Type,
			CouponCode:     res.Code,
			Message:        fmt.Sprintf("Coupon applied successfully! You saved ₹%s", res.Discount),
		})
	}
}
