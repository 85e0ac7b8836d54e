package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"ecom_stationery/internal/storage"
)

type Purpose string

// Each purpose is its own namespace: the same identifier may hold one live
// code per purpose.
const (
	PurposeGeneric Purpose = "otp"
	PurposeSignup  Purpose = "signup"
	PurposeLogin   Purpose = "login"
	PurposeReset   Purpose = "reset"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

type KeyValueStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) (bool, error)
}

type Manager struct {
	store KeyValueStore
	ttl   time.Duration
}

func New(store KeyValueStore, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
	}
}

// Generate returns a uniformly random code in 100000..999999.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", fmt.Errorf("otp.Generate: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// Key is the store key for a purpose and identifier. Purposes never contain
// the separator, so keys of different purposes cannot collide.
func Key(purpose Purpose, identifier string) string {
	return "otp:" + string(purpose) + ":" + identifier
}

// Issue stores a fresh code for identifier, replacing any live one, and
// returns it for delivery.
func (m *Manager) Issue(ctx context.Context, purpose Purpose, identifier string) (string, error) {
	const op = "otp.Manager.Issue"

	code, err := Generate()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := m.store.Set(ctx, Key(purpose, identifier), code, m.ttl); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return code, nil
}

// Match compares candidate against the live code without consuming it.
func (m *Manager) Match(ctx context.Context, purpose Purpose, identifier, candidate string) (bool, error) {
	const op = "otp.Manager.Match"

	stored, err := m.store.Get(ctx, Key(purpose, identifier))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return candidate != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1, nil
}

// Verify consumes the code on a match. A mismatch leaves the stored code in
// place. When a concurrent caller removed the code between the read and the
// delete, the verification fails.
func (m *Manager) Verify(ctx context.Context, purpose Purpose, identifier, candidate string) (bool, error) {
	const op = "otp.Manager.Verify"

	ok, err := m.Match(ctx, purpose, identifier, candidate)
	if err != nil || !ok {
		return false, err
	}

	deleted, err := m.store.Delete(ctx, Key(purpose, identifier))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return deleted, nil
}

func (m *Manager) Invalidate(ctx context.Context, purpose Purpose, identifier string) error {
	const op = "otp.Manager.Invalidate"

	if _, err := m.store.Delete(ctx, Key(purpose, identifier)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
