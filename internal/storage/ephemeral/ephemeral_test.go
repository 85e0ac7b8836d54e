package ephemeral_test

import (
	"context"
	"testing"
	"time"

	"ecom_stationery/internal/config"
	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/storage/ephemeral"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func TestNew_PrefersRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, backend := ephemeral.New(context.Background(), sl.Discard(), config.Redis{
		Address:     mr.Addr(),
		DialTimeout: time.Second,
		OpTimeout:   time.Second,
	})
	defer store.Close()

	assert.Equal(t, ephemeral.BackendRedis, backend)
}

func TestNew_FallsBackToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	store, backend := ephemeral.New(context.Background(), sl.Discard(), config.Redis{
		Address:     addr,
		DialTimeout: 200 * time.Millisecond,
		OpTimeout:   200 * time.Millisecond,
	})
	defer store.Close()

	assert.Equal(t, ephemeral.BackendMemory, backend)
}

func TestNew_NoAddress(t *testing.T) {
	store, backend := ephemeral.New(context.Background(), sl.Discard(), config.Redis{})
	defer store.Close()

	assert.Equal(t, ephemeral.BackendMemory, backend)
}
