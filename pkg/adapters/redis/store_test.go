package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fable/pkg/adapters/redis"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	return backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	store := redis.NewFromClient(newTestClient(t))
	ports.RunFlowStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	def := &domain.FlowDefinition{
		ID:          "flow-ttl",
		StartNodeID: "start",
		Nodes:       []domain.Node{{ID: "start"}},
	}

	require.NoError(t, store.Save(ctx, def))

	flows, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, flows, def.ID)

	// Expire the key inside miniredis.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, def.ID)
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	// Index pruning keys off time.Now(); wait past the 1s TTL so the lazy
	// cleanup score threshold has moved beyond the entry.
	time.Sleep(1200 * time.Millisecond)

	flows, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, flows)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	def := &domain.FlowDefinition{
		ID:          "my-flow",
		StartNodeID: "start",
		Nodes:       []domain.Node{{ID: "start"}},
	}
	require.NoError(t, store.Save(ctx, def))

	assert.True(t, mr.Exists("custom:app:my-flow"), "expected key with custom prefix")
	assert.True(t, mr.Exists("custom:app:index"), "expected index with custom prefix")

	flows, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, flows, def.ID)
}
