package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setServeEnv(t *testing.T, endpoint string) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "0")
	t.Setenv("LOG_FILE_PATH", "")
	t.Setenv("REDIS_URI", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("GENERATOR_ENDPOINT", endpoint)
}

func TestServeRefusesEmptyEndpoint(t *testing.T) {
	setServeEnv(t, "")

	err := Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENERATOR_ENDPOINT")
}

func TestServeStopsWithContext(t *testing.T) {
	setServeEnv(t, "http://127.0.0.1:1/generate")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Serve(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after its context ended")
	}
}
