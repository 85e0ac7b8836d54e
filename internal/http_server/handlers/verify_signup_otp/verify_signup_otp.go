package verifySignupOTP

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ecom_stationery/internal/auth"
	resp "ecom_stationery/internal/lib/api/response"
	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	OTP         string `json:"otp" validate:"required"`
}

type Response struct {
	resp.Response
	Message      string            `json:"message"`
	SessionToken string            `json:"session_token"`
	User         models.PublicUser `json:"user"`
}

type SignupConfirmer interface {
	ConfirmSignup(ctx context.Context, phone, code string) (auth.Result, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	confirmer SignupConfirmer,
	timeout time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verifySignupOTP.New"

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

		res, err := confirmer.ConfirmSignup(ctx, req.PhoneNumber, req.OTP)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidOTP):
				resp.Fail(w, r, http.StatusBadRequest, resp.MsgInvalidOTP)
			case errors.Is(err, auth.ErrSignupExpired):
				resp.Fail(w, r, http.StatusBadRequest, "Signup session expired")
			case errors.Is(err, auth.ErrUserExists):
				resp.Fail(w, r, http.StatusBadRequest, "User with this phone number already exists")
			case errors.Is(err, auth.ErrEmailExists):
				resp.Fail(w, r, http.StatusBadRequest, "User with this email already exists")
			case errors.Is(err, auth.ErrUnavailable):
				log.Error("store unavailable", sl.Err(err))
				resp.Fail(w, r, http.StatusServiceUnavailable, resp.MsgUnavailable)
			default:
				log.Error("failed to create user", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, "Failed to create user")
			}

			return
		}

		log.Info("signup confirmed")

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			Message:      "User created successfully",
			SessionToken: res.SessionToken,
			User:         res.User,
		})
	}
}
