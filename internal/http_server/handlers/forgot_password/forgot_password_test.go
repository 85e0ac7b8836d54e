package forgotPassword_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecom_stationery/internal/auth"
	forgotPassword "ecom_stationery/internal/http_server/handlers/forgot_password"
	sl "ecom_stationery/internal/lib/logger"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type fakeRequester struct{}

func (fakeRequester) ForgotPassword(_ context.Context, identifier string) (string, error) {
	if identifier != "9876543210" {
		return "", auth.ErrUserNotFound
	}

	return "", nil
}

func TestForgotPassword(t *testing.T) {
	h := forgotPassword.New(sl.Discard(), validator.New(), fakeRequester{}, time.Second)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/forgot-password", strings.NewReader(`{"identifier":"9876543210"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password reset OTP sent")
	assert.NotContains(t, rec.Body.String(), `"otp"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/forgot-password", strings.NewReader(`{"identifier":"1"}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
