package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisAddrForms(t *testing.T) {
	plain, err := NewRedis("localhost:6379")
	require.NoError(t, err)
	defer plain.Close()
	assert.Equal(t, "localhost:6379", plain.Client.Options().Addr)

	url, err := NewRedis("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	defer url.Close()
	assert.Equal(t, "cache.internal:6380", url.Client.Options().Addr)
	assert.Equal(t, "secret", url.Client.Options().Password)
	assert.Equal(t, 2, url.Client.Options().DB)

	_, err = NewRedis("redis://cache.internal:6380/notanumber")
	assert.Error(t, err)
}

func TestRedisHealthyNil(t *testing.T) {
	var r *Redis
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, r.Close())
}
