// Package notify routes issued OTP codes to the user.
package notify

import (
	"context"
	"log/slog"
	"strings"

	"ecom_stationery/internal/models"
)

// ChannelFor picks the delivery channel from the shape of the identifier.
func ChannelFor(identifier string) string {
	if strings.Contains(identifier, "@") {
		return models.ChannelEmail
	}

	return models.ChannelSMS
}

// LogPublisher stands in for a real gateway during development. It writes
// the code to the log only when exposeCode is set.
type LogPublisher struct {
	log        *slog.Logger
	exposeCode bool
}

func NewLogPublisher(log *slog.Logger, exposeCode bool) *LogPublisher {
	return &LogPublisher{log: log, exposeCode: exposeCode}
}

func (p *LogPublisher) SendMessage(_ context.Context, msg models.OTPMessage) error {
	attrs := []any{
		slog.String("to", msg.To),
		slog.String("channel", msg.Channel),
		slog.String("purpose", msg.Purpose),
	}

	if p.exposeCode {
		attrs = append(attrs, slog.String("otp", msg.Code))
	}

	p.log.Info("otp delivery stubbed", attrs...)

	return nil
}
