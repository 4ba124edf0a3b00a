package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContextCarriesIDs(t *testing.T) {
	var buf bytes.Buffer
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithUserID(ctx, 7)

	WithContext(ctx).Info("hello")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"user_id":7`)
}

func TestWithContextWithoutIDs(t *testing.T) {
	var buf bytes.Buffer
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, nil))

	// A value stored under a foreign key type is not picked up; only the
	// package's own context helpers feed the logger.
	type otherKey string
	ctx := context.WithValue(context.Background(), otherKey("request_id"), "req-123")

	WithContext(ctx).Info("hello")

	assert.NotContains(t, buf.String(), "req-123")
}
