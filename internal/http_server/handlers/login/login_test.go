package login_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecom_stationery/internal/auth"
	"ecom_stationery/internal/http_server/handlers/login"
	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, identifier, pass string) (auth.Result, error) {
	switch {
	case identifier != "9876543210":
		return auth.Result{}, auth.ErrUserNotFound
	case pass != "secret1":
		return auth.Result{}, auth.ErrInvalidCredentials
	}

	return auth.Result{SessionToken: "tok", User: models.PublicUser{PhoneNumber: identifier}}, nil
}

func TestLogin(t *testing.T) {
	h := login.New(sl.Discard(), validator.New(), fakeAuth{}, time.Second)

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{name: "ok", body: `{"identifier":"9876543210","password":"secret1"}`, status: http.StatusOK},
		{name: "unknown user", body: `{"identifier":"x@y.z","password":"secret1"}`, status: http.StatusNotFound, msg: "User not found"},
		{name: "wrong password", body: `{"identifier":"9876543210","password":"nope"}`, status: http.StatusUnauthorized, msg: "Invalid password"},
		{name: "missing password", body: `{"identifier":"9876543210"}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body)))

			require.Equal(t, tt.status, rec.Code)

			var out map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

			if tt.status == http.StatusOK {
				assert.Equal(t, "Login successful", out["message"])
				assert.Equal(t, "tok", out["session_token"])
				return
			}

			if tt.msg != "" {
				assert.Equal(t, tt.msg, out["error"])
			}
		})
	}
}
