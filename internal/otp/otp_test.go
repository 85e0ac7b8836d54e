package otp_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ecom_stationery/internal/otp"
	"ecom_stationery/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const phone = "+919876543210"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager() (*otp.Manager, *clock) {
	c := &clock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	return otp.New(memory.NewWithClock(c.Now), 5*time.Minute), c
}

func wrong(code string) string {
	if code == "111111" {
		return "222222"
	}
	return "111111"
}

func TestGenerate_Range(t *testing.T) {
	for range 1000 {
		code, err := otp.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestKey_PurposesDoNotCollide(t *testing.T) {
	keys := map[string]struct{}{}
	for _, p := range []otp.Purpose{otp.PurposeGeneric, otp.PurposeSignup, otp.PurposeLogin, otp.PurposeReset} {
		keys[otp.Key(p, phone)] = struct{}{}
	}

	assert.Len(t, keys, 4)
	assert.NotEqual(t, otp.Key(otp.PurposeGeneric, "login:"+phone), otp.Key(otp.PurposeLogin, phone))
}

func TestVerify_ExactlyOnce(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	code, err := m.Issue(ctx, otp.PurposeLogin, phone)
	require.NoError(t, err)

	ok, err := m.Verify(ctx, otp.PurposeLogin, phone, code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Verify(ctx, otp.PurposeLogin, phone, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_WrongCodeKeepsEntry(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	code, err := m.Issue(ctx, otp.PurposeReset, phone)
	require.NoError(t, err)

	for range 3 {
		ok, err := m.Verify(ctx, otp.PurposeReset, phone, wrong(code))
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := m.Verify(ctx, otp.PurposeReset, phone, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_AfterTTL(t *testing.T) {
	m, c := newManager()
	ctx := context.Background()

	code, err := m.Issue(ctx, otp.PurposeSignup, phone)
	require.NoError(t, err)

	c.Advance(5 * time.Minute)

	ok, err := m.Verify(ctx, otp.PurposeSignup, phone, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_OtherPurposeRejected(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	code, err := m.Issue(ctx, otp.PurposeLogin, phone)
	require.NoError(t, err)

	ok, err := m.Verify(ctx, otp.PurposeReset, phone, code)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Verify(ctx, otp.PurposeLogin, phone, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_EmptyCandidate(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	_, err := m.Issue(ctx, otp.PurposeGeneric, phone)
	require.NoError(t, err)

	ok, err := m.Verify(ctx, otp.PurposeGeneric, phone, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIssue_ReplacesPreviousCode(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	first, err := m.Issue(ctx, otp.PurposeLogin, phone)
	require.NoError(t, err)

	var second string
	for second == "" || second == first {
		second, err = m.Issue(ctx, otp.PurposeLogin, phone)
		require.NoError(t, err)
	}

	ok, err := m.Match(ctx, otp.PurposeLogin, phone, first)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Match(ctx, otp.PurposeLogin, phone, second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatch_DoesNotConsume(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	code, err := m.Issue(ctx, otp.PurposeSignup, phone)
	require.NoError(t, err)

	for range 2 {
		ok, err := m.Match(ctx, otp.PurposeSignup, phone, code)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestInvalidate(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	code, err := m.Issue(ctx, otp.PurposeSignup, phone)
	require.NoError(t, err)
	require.NoError(t, m.Invalidate(ctx, otp.PurposeSignup, phone))

	ok, err := m.Verify(ctx, otp.PurposeSignup, phone, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_ConcurrentConsumesOnce(t *testing.T) {
	m, _ := newManager()
	ctx := context.Background()

	code, err := m.Issue(ctx, otp.PurposeLogin, phone)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)

	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Verify(ctx, otp.PurposeLogin, phone, code); ok {
				wins.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

type failingStore struct{ err error }

func (f failingStore) Set(context.Context, string, string, time.Duration) error { return f.err }
func (f failingStore) Get(context.Context, string) (string, error)              { return "", f.err }
func (f failingStore) Delete(context.Context, string) (bool, error)             { return false, f.err }

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	m := otp.New(failingStore{err: boom}, time.Minute)
	ctx := context.Background()

	_, err := m.Issue(ctx, otp.PurposeLogin, phone)
	assert.ErrorIs(t, err, boom)

	_, err = m.Verify(ctx, otp.PurposeLogin, phone, "123456")
	assert.ErrorIs(t, err, boom)
}
