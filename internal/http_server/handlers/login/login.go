package login

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
	Identifier string `json:"identifier" validate:"required"`
	Pass       string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	Message      string            `json:"message"`
	SessionToken string            `json:"session_token"`
	User         models.PublicUser `json:"user"`
}

type Authenticator interface {
	Login(ctx context.Context, identifier, pass string) (auth.Result, error)
}

// New godoc
// @Summary      Password login
// @Description  Identifier is either the phone number or the email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  resp.Response  "wrong password"
// @Failure      404  {object}  resp.Response  "unknown identifier"
// @Router       /api/login [post]
func New(
	log *slog.Logger,
	validate *validator.Validate,
	authenticator Authenticator,
	timeout time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

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

		res, err := authenticator.Login(ctx, req.Identifier, req.Pass)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserNotFound):
				resp.Fail(w, r, http.StatusNotFound, resp.MsgUserNotFound)
			case errors.Is(err, auth.ErrInvalidCredentials):
				resp.Fail(w, r, http.StatusUnauthorized, "Invalid password")
			case errors.Is(err, auth.ErrUnavailable):
				log.Error("store unavailable", sl.Err(err))
				resp.Fail(w, r, http.StatusServiceUnavailable, resp.MsgUnavailable)
			default:
				log.Error("failed to login user", sl.Err(err))
				resp.Fail(w, r, http.StatusInternalServerError, "Internal error")
			}

			return
		}

		log.Info("User logged in successfully")

		ResponseOK(w, r, res)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, res auth.Result) {
	render.JSON(w, r, Response{
		Response:     resp.OK(),
		Message:      "Login successful",
		SessionToken: res.SessionToken,
		User:         res.User,
	})
}
