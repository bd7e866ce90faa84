package redis_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/garagedesk/internal/session"
	redisstore "github.com/gosuda/garagedesk/internal/store/redis"
)

func TestKey(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		got := redisstore.Key(redisstore.DefaultPrefix, session.KeyToken)
		assert.Equal(t, "garagedesk:session:auth_token", got)
	})

	t.Run("custom prefix", func(t *testing.T) {
		t.Parallel()

		got := redisstore.Key("kiosk-7", session.KeyUser)
		assert.Equal(t, "kiosk-7:auth_user", got)
		assert.True(t, strings.HasPrefix(got, "kiosk-7:"))
	})

	t.Run("distinct keys do not collide", func(t *testing.T) {
		t.Parallel()

		a := redisstore.Key(redisstore.DefaultPrefix, session.KeyToken)
		b := redisstore.Key(redisstore.DefaultPrefix, session.KeyTheme)
		assert.NotEqual(t, a, b)
	})
}

func TestNew_Unreachable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()

	// Port 1 on loopback is never a Redis server.
	s, err := redisstore.New(ctx, "127.0.0.1:1", "", 0, "")
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "redis.New: ping")
}
