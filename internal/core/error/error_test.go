package errx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))

	var appErr *AppError
	require.True(t, errors.As(WrapRedis(redis.Nil), &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.True(t, errors.Is(WrapRedis(redis.Nil), redis.Nil))

	boom := errors.New("connection refused")
	require.True(t, errors.As(WrapRedis(boom), &appErr))
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Contains(t, appErr.Error(), RedisErrorMessage)
}

func TestWrapAgent(t *testing.T) {
	assert.NoError(t, WrapAgent("FactChecker", nil))

	cause := errors.New("boom")
	err := WrapAgent("FactChecker", cause)

	var ae *AgentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "FactChecker", ae.Agent)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "agent FactChecker: boom", err.Error())

	// Wrapping twice with the same agent is a no-op.
	assert.Same(t, err, WrapAgent("FactChecker", err))
}

func TestWrapUpstream(t *testing.T) {
	err := WrapUpstream(errors.New("404"), "")
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, UpstreamErrorMessage, appErr.Message)
}
