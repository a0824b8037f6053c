package lib

import (
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestGetRedisClientUnconfigured(t *testing.T) {
	os.Unsetenv("REDIS_HOST")
	assert.Nil(t, GetRedisClient())
}

func TestNewRedisClientInjection(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	NewRedisClient(client)
	t.Cleanup(func() {
		NewRedisClient(nil)
		_ = client.Close()
	})

	assert.Same(t, client, GetRedisClient())
}
