package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limit status", err: errors.New("429 Too Many Requests"), want: true},
		{name: "overloaded status", err: errors.New("529 overloaded_error"), want: true},
		{name: "rate limit message", err: errors.New("rate limit exceeded, retry later"), want: true},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "deadline exceeded sentinel", err: context.DeadlineExceeded, want: true},
		{name: "wrapped deadline", err: fmt.Errorf("call failed: %w", context.DeadlineExceeded), want: true},
		{name: "service unavailable", err: errors.New("503 Service Unavailable"), want: true},
		{name: "auth failure", err: errors.New("401 invalid api key"), want: false},
		{name: "generic failure", err: errors.New("something broke"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransientError(tt.err))
		})
	}
}

func TestIsSchemaViolation(t *testing.T) {
	violation := &SchemaViolationError{Task: "risk", Reason: "missing field"}

	assert.True(t, IsSchemaViolation(violation))
	assert.True(t, IsSchemaViolation(fmt.Errorf("attempt failed: %w", violation)))
	assert.False(t, IsSchemaViolation(errors.New("not a violation")))
	assert.False(t, IsSchemaViolation(nil))
}

func TestRetryConfigBackoff(t *testing.T) {
	config := RetryConfig{
		InitialBackoff:    time.Second,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, time.Second, config.Backoff(0))
	assert.Equal(t, 2*time.Second, config.Backoff(1))
	assert.Equal(t, 4*time.Second, config.Backoff(2))
	assert.Equal(t, 5*time.Second, config.Backoff(3), "capped at MaxBackoff")
}
