package signup

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
	FullName    string `json:"fullName" validate:"required,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=15"`
	Email       string `json:"email" validate:"omitempty,email,max=255"`
	Password    string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
}

type SignupRequester interface {
	RequestSignup(ctx context.Context, req auth.SignupRequest) (string, error)
}

// New godoc
// @Summary      Start registration
// @Description  Stages the registration and sends a code to the phone number.
// @Description  The account is created by /api/verify-signup-otp.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      400  {object}  resp.Response  "missing fields or duplicate user"
// @Failure      503  {object}  resp.Response
// @Router       /api/signup [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	requester SignupRequester,
	timeout time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signup.New"

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

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			log.Info("Invalid request", sl.Err(err))

			resp.Invalid(w, r, err)

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var email *string
		if req.Email != "" {
			email = &req.Email
		}

		code, err := requester.RequestSignup(ctx, auth.SignupRequest{
			FullName:    req.FullName,
			PhoneNumber: req.PhoneNumber,
			Email:       email,
			Password:    req.Password,
		})
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserExists):
				resp.Fail(w, r, http.StatusBadRequest, "User with this phone number already exists")
			case errors.Is(err, auth.ErrEmailExists):
				resp.Fail(w, r, http.StatusBadRequest, "User with this email already exists")
			case errors.Is(err, auth.ErrUnavailable):
				log.Error("store unavailable", sl.Err(err))
				resp.Fail(w, r, http.StatusServiceUnavailable, resp.MsgUnavailable)
			default:
				log.Error("failed to start signup", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, "Internal error")
			}

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "OTP sent for signup verification",
			OTP:      code,
		})
	}
}
