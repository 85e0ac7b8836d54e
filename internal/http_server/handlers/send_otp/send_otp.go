package sendOTP

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ecom_stationery/internal/auth"
	resp "ecom_stationery/internal/lib/api/response"
	sl "ecom_stationery/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Phone string `json:"phone" validate:"required"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

type OTPSender interface {
	SendOTP(ctx context.Context, phone string) (string, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	sender OTPSender,
	timeout time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sendOTP.New"

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

		if err := validate.Struct(req); err != nil {
			log.Info("Invalid request", sl.Err(err))

			resp.Invalid(w, r, err)

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		code, err := sender.SendOTP(ctx, req.Phone)
		if err != nil {
			log.Error("failed to send otp", sl.Err(err))

			if errors.Is(err, auth.ErrUnavailable) {
				resp.Fail(w, r, http.StatusServiceUnavailable, resp.MsgUnavailable)
				return
			}

			resp.Fail(w, r, http.StatusInternalServerError, "Failed to send OTP")

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "OTP sent successfully",
			OTP:      code,
		})
	}
}
