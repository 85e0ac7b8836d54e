package mailer

import (
	"fmt"
	"log/slog"

	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/models"
	"ecom_stationery/internal/rabbitmq"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m *Mailer) Send(to, subject, body string) error {
	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(m.message(to, subject, body))
}

func (m *Mailer) message(to, subject, body string) *gomail.Message {
	from := m.From
	if from == "" {
		from = m.Username
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return msg
}

type Sender interface {
	Send(to, subject, body string) error
}

// Compose renders the subject and body for an OTP message.
func Compose(msg models.OTPMessage) (string, string) {
	var subject string

	switch msg.Purpose {
	case "signup":
		subject = "Confirm your signup"
	case "reset":
		subject = "Password reset code"
	case "login":
		subject = "Your login code"
	default:
		subject = "Your verification code"
	}

	body := fmt.Sprintf("Your code is %s. It expires in a few minutes. Do not share it with anyone.", msg.Code)

	return subject, body
}

// Dispatch returns the queue handler used by the otp sender. Email messages
// go through sender; SMS has no gateway yet and is only logged.
func Dispatch(log *slog.Logger, sender Sender) func(body []byte) error {
	return func(body []byte) error {
		const op = "mailer.Dispatch"

		log := log.With(slog.String("op", op))

		msg, err := rabbitmq.Decode(body)
		if err != nil {
			// a malformed message will never succeed, drop it
			log.Error("failed to decode message", sl.Err(err))
			return nil
		}

		switch msg.Channel {
		case models.ChannelEmail:
			subject, text := Compose(msg)
			if err := sender.Send(msg.To, subject, text); err != nil {
				log.Error("failed to send email", sl.Err(err))
				return err
			}
		default:
			log.Warn("sms gateway not configured, message dropped", slog.String("to", msg.To))
			return nil
		}

		log.Info("otp delivered", slog.String("channel", msg.Channel), slog.String("purpose", msg.Purpose))

		return nil
	}
}
