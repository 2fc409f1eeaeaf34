package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmfresh/internal/repos"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestIdempotency_ClaimOnce(t *testing.T) {
	mr, client := setupRedis(t)
	repo := repos.NewIdempotencyRepo(client)
	ctx := context.Background()

	ok, err := repo.Claim(ctx, "u-carla:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(ctx, "u-carla:abc")
	require.NoError(t, err)
	assert.False(t, ok, "second claim of the same key must fail")

	assert.True(t, mr.Exists("farmfresh:idem:u-carla:abc"))
}

func TestIdempotency_ReleaseAllowsRetry(t *testing.T) {
	_, client := setupRedis(t)
	repo := repos.NewIdempotencyRepo(client)
	ctx := context.Background()

	ok, err := repo.Claim(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Release(ctx, "k1"))

	ok, err = repo.Claim(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdempotency_Expires(t *testing.T) {
	mr, client := setupRedis(t)
	repo := repos.NewIdempotencyRepo(client)
	ctx := context.Background()

	ok, err := repo.Claim(ctx, "k2")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(25 * time.Hour)

	ok, err = repo.Claim(ctx, "k2")
	require.NoError(t, err)
	assert.True(t, ok, "key should be claimable after the TTL")
}
