package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ecom_stationery/internal/auth"
	resp "ecom_stationery/internal/lib/api/response"
	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	User  *models.PublicUser `json:"user,omitempty"`
	Phone string             `json:"phone,omitempty"`
}

type SessionResolver interface {
	SessionUser(ctx context.Context, token string) (models.PublicUser, error)
	LegacySession(ctx context.Context, token string) (string, error)
}

// New resolves the bearer token. Durable sessions are tried first, then the
// short-lived sessions opened by /api/verify-otp.
func New(log *slog.Logger, resolver SessionResolver, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token, ok := bearer(r)
		if !ok {
			resp.Fail(w, r, http.StatusUnauthorized, "Missing session token")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		user, err := resolver.SessionUser(ctx, token)
		if err == nil {
			render.JSON(w, r, Response{Response: resp.OK(), User: &user})
			return
		}

		if errors.Is(err, auth.ErrInvalidSession) {
			var phone string

			phone, err = resolver.LegacySession(ctx, token)
			if err == nil {
				render.JSON(w, r, Response{Response: resp.OK(), Phone: phone})
				return
			}
		}

		switch {
		case errors.Is(err, auth.ErrInvalidSession):
			resp.Fail(w, r, http.StatusUnauthorized, "Invalid or expired session")
		case errors.Is(err, auth.ErrUnavailable):
			log.Error("store unavailable", sl.Err(err))
			resp.Fail(w, r, http.StatusServiceUnavailable, resp.MsgUnavailable)
		default:
			log.Error("failed to resolve session", sl.Err(err))
			resp.Fail(w, r, http.StatusInternalServerError, "Internal error")
		}
	}
}

func bearer(r *http.Request) (string, bool) {
	const prefix = "Bearer "

	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(h[len(prefix):])

	return token, token != ""
}
