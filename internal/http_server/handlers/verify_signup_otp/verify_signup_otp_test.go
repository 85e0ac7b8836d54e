package verifySignupOTP_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecom_stationery/internal/auth"
	verifySignupOTP "ecom_stationery/internal/http_server/handlers/verify_signup_otp"
	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type confirmerFunc func(phone, code string) (auth.Result, error)

func (f confirmerFunc) ConfirmSignup(_ context.Context, phone, code string) (auth.Result, error) {
	return f(phone, code)
}

const body = `{"phoneNumber":"9876543210","otp":"123456"}`

func serve(t *testing.T, c verifySignupOTP.SignupConfirmer, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	verifySignupOTP.New(sl.Discard(), validator.New(), c, time.Second).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/verify-signup-otp", strings.NewReader(body)))

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return rec, out
}

func TestVerifySignupOTP(t *testing.T) {
	email := "a@b.co"
	c := confirmerFunc(func(phone, code string) (auth.Result, error) {
		return auth.Result{
			SessionToken: "tok",
			User:         models.PublicUser{FullName: "Asha", PhoneNumber: phone, Email: &email},
		}, nil
	})

	rec, out := serve(t, c, body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User created successfully", out["message"])
	assert.Equal(t, "tok", out["session_token"])

	user, ok := out["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Asha", user["fullName"])
	assert.Equal(t, "9876543210", user["phoneNumber"])
	assert.Equal(t, "a@b.co", user["email"])
	assert.NotContains(t, user, "password_hash")
}

func TestVerifySignupOTP_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "bad code", err: auth.ErrInvalidOTP, status: http.StatusBadRequest, msg: "Invalid or expired OTP"},
		{name: "payload expired", err: auth.ErrSignupExpired, status: http.StatusBadRequest, msg: "Signup session expired"},
		{name: "email taken", err: auth.ErrEmailExists, status: http.StatusBadRequest, msg: "User with this email already exists"},
		{name: "unavailable", err: auth.ErrUnavailable, status: http.StatusServiceUnavailable},
		{name: "create failure", err: errors.New("boom"), status: http.StatusInternalServerError, msg: "Failed to create user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := confirmerFunc(func(string, string) (auth.Result, error) { return auth.Result{}, tt.err })

			rec, out := serve(t, c, body)

			assert.Equal(t, tt.status, rec.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, out["error"])
			}
		})
	}
}
