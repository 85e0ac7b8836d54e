package sendLoginOTP

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
	Identifier string `json:"identifier" validate:"required"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

type LoginOTPSender interface {
	SendLoginOTP(ctx context.Context, identifier string) (string, error)
}

// New sends a login code to an existing user's phone or email.
func New(
	log *slog.Logger,
	validate *validator.Validate,
	sender LoginOTPSender,
	timeout time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sendLoginOTP.New"

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

		code, err := sender.SendLoginOTP(ctx, req.Identifier)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserNotFound):
				resp.Fail(w, r, http.StatusNotFound, resp.MsgUserNotFound)
			case errors.Is(err, auth.ErrUnavailable):
				log.Error("store unavailable", sl.Err(err))
				resp.Fail(w, r, http.StatusServiceUnavailable, resp.MsgUnavailable)
			default:
				log.Error("failed to send login otp", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, "Failed to send OTP")
			}

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "OTP sent for login",
			OTP:      code,
		})
	}
}
