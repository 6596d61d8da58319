package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoggerCarriesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.DebugLevel, Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithField(ctx, "order_id", 7)
	log.Error(ctx, "order.persist_failed", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"order_id":7`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"service":"test"`)
}

func TestLoggerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.WarnLevel, Output: buf})

	log.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	log.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	ctx := log.WithField(context.Background(), "k", "v")
	log.Info(ctx, "nothing")
	assert.NotNil(t, ctx)
}
