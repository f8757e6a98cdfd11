package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptionsDefaults(t *testing.T) {
	opts := clientOptions(Options{URI: "mongodb://localhost:27017"})

	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(4), *opts.MaxPoolSize)
	assert.Equal(t, 10*time.Second, *opts.ConnectTimeout)
	assert.Equal(t, 10*time.Second, *opts.ServerSelectionTimeout)
	assert.Equal(t, "refreshwatch", *opts.AppName)
	assert.NoError(t, opts.Validate())
}

func TestClientOptionsFollowTimeout(t *testing.T) {
	opts := clientOptions(Options{
		URI:         "mongodb://localhost:27017",
		Timeout:     3 * time.Second,
		MaxPoolSize: 2,
		AppName:     "refreshwatch/test",
	})

	assert.Equal(t, uint64(2), *opts.MaxPoolSize)
	assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
	assert.Equal(t, 3*time.Second, *opts.SocketTimeout)
	assert.Equal(t, 3*time.Second, *opts.ServerSelectionTimeout)
	assert.Equal(t, "refreshwatch/test", *opts.AppName)
}

func TestConnectRejectsInvalidURI(t *testing.T) {
	_, err := Connect(context.Background(), Options{URI: "not-a-mongo-uri", Database: "refreshwatch"})
	assert.ErrorContains(t, err, "invalid MongoDB options")
}
