package sendLoginOTP_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecom_stationery/internal/auth"
	sendLoginOTP "ecom_stationery/internal/http_server/handlers/send_login_otp"
	sl "ecom_stationery/internal/lib/logger"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type fakeSender struct{}

func (fakeSender) SendLoginOTP(_ context.Context, identifier string) (string, error) {
	if identifier != "a@b.co" {
		return "", auth.ErrUserNotFound
	}

	return "111222", nil
}

func TestSendLoginOTP(t *testing.T) {
	h := sendLoginOTP.New(sl.Discard(), validator.New(), fakeSender{}, time.Second)

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{name: "ok", body: `{"identifier":"a@b.co"}`, status: http.StatusOK, want: `"message":"OTP sent for login"`},
		{name: "unknown", body: `{"identifier":"c@d.co"}`, status: http.StatusNotFound, want: `"error":"User not found"`},
		{name: "missing", body: `{}`, status: http.StatusBadRequest, want: `"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-login-otp", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}
