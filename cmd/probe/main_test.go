package main

import (
	"testing"
	"time"

	"promptcraft/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRequestContextWithoutTimeoutHasNoDeadline(t *testing.T) {
	ctx, cancel := requestContext(&config.GeneratorConfig{Endpoint: "http://x", TimeoutMS: 0})
	defer cancel()

	_, ok := ctx.Deadline()
	assert.False(t, ok)
}

func TestRequestContextOutlastsClientTimeout(t *testing.T) {
	ctx, cancel := requestContext(&config.GeneratorConfig{Endpoint: "http://x", TimeoutMS: 2000})
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(7*time.Second), deadline, time.Second)
}
