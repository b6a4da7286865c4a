package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilClient_FailsSafe(t *testing.T) {
	var c *Client
	ctx := context.Background()

	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(ctx))

	var out map[string]int
	assert.False(t, c.GetJSON(ctx, "k", &out))
	assert.NoError(t, c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute))

	assert.Zero(t, c.Counter(ctx, "gen"))
	assert.NoError(t, c.Incr(ctx, "gen", time.Hour))
}

func TestUnreachableRedis_BehavesLikeMiss(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	assert.Error(t, c.Ping(ctx))

	data, err := c.Get(ctx, "stats:someone")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, c.Set(ctx, "stats:someone", []byte("{}"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "stats:someone"))
	assert.Zero(t, c.Counter(ctx, "stats:gen:someone"))
	assert.NoError(t, c.Incr(ctx, "stats:gen:someone", time.Hour))
}

func TestSetJSON_EncodeError(t *testing.T) {
	var c *Client
	err := c.SetJSON(context.Background(), "k", make(chan int), time.Minute)
	assert.Error(t, err)
}
