package handler

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestCheckRedisStates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.Equal(t, "disabled", checkRedis(ctx, nil))

	// Nothing listens on port 1.
	unreachable := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	assert.Equal(t, "down", checkRedis(ctx, unreachable))
}
