package models

import "time"

type User struct {
	ID           int64
	FullName     string
	PhoneNumber  string
	Email        *string
	PasswordHash string
	IsVerified   bool
	CreatedAt    time.Time
}

// PublicUser is the client-facing view of a User. It never carries the
// password hash or the internal id.
type PublicUser struct {
	FullName    string  `json:"fullName"`
	PhoneNumber string  `json:"phoneNumber"`
	Email       *string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
	}
}

type Session struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session is past its absolute expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SignupPayload is the registration staged between signup request and OTP
// confirmation. Stored as JSON in the ephemeral store.
type SignupPayload struct {
	FullName    string  `json:"fullName"`
	PhoneNumber string  `json:"phoneNumber"`
	Email       *string `json:"email"`
	Password    string  `json:"password"`
}

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// OTPMessage is what the API publishes for out-of-band delivery.
type OTPMessage struct {
	To      string `json:"to"`
	Channel string `json:"channel"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}

type Variant struct {
	Weight string  `json:"weight" yaml:"weight"`
	Price  float64 `json:"price" yaml:"price"`
}

type Product struct {
	ID            int64     `json:"id" yaml:"id"`
	Name          string    `json:"name" yaml:"name"`
	Price         float64   `json:"price" yaml:"price"`
	OriginalPrice float64   `json:"original_price" yaml:"original_price"`
	Image         string    `json:"image" yaml:"image"`
	Description   string    `json:"description" yaml:"description"`
	Variants      []Variant `json:"variants" yaml:"variants"`
	Category      string    `json:"category" yaml:"category"`
}
