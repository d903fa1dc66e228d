package redis

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examboard/internal/platform/config"
)

func TestNew_Unconfigured(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "://nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis URL")
}

func TestKey(t *testing.T) {
	raw := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	defer raw.Close()

	assert.Equal(t, "examboard:ledger:a:b", Wrap(raw, "").Key("ledger", "a", "b"))
	assert.Equal(t, "staging:ledger", Wrap(raw, "staging").Key("ledger"))
}
