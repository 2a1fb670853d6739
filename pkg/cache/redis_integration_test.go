//go:build integration
// +build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *RedisClient {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := NewRedisClient(fmt.Sprintf("%s:%d", host, port.Int()), "", 0, 5, 1)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx))
	return client
}

func TestRedisClient(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	_, err := client.Get(ctx, "feed:ver:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	var page []string
	assert.ErrorIs(t, client.GetJSON(ctx, "feed:1:v0:1:10", &page), ErrCacheMiss)

	require.NoError(t, client.SetJSON(ctx, "feed:1:v0:1:10", []string{"a", "b"}, time.Minute))
	require.NoError(t, client.GetJSON(ctx, "feed:1:v0:1:10", &page))
	assert.Equal(t, []string{"a", "b"}, page)

	require.NoError(t, client.IncrMany(ctx, "feed:ver:1", "feed:ver:2", "feed:ver:1"))
	v, err := client.Get(ctx, "feed:ver:1")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	require.NoError(t, client.IncrMany(ctx))
}
