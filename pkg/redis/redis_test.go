package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/catalyst-alpha/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	var result []float64
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", []float64{1, 2}, time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_FullKey(t *testing.T) {
	cache := NewCache(Disabled(), "catalyst")
	assert.Equal(t, "catalyst:cache:prices:XBI", cache.fullKey("prices:XBI"))
}

func TestPriceSeriesKey(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "prices:ITCI:20240101:20250101", PriceSeriesKey("itci", from, to))
}
