package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation/eventstore/oteladapters"
)

func Test_SlogBridgeLoggerWithHandler_WritesThroughHandler(t *testing.T) {
	// arrange
	buf := &bytes.Buffer{}
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	// act
	logger.InfoContext(context.Background(), "loan issued", "loan_id", "L-1")
	logger.DebugContext(context.Background(), "query", "sql", "SELECT 1")

	// assert
	assert.Contains(t, buf.String(), "loan issued")
	assert.Contains(t, buf.String(), "loan_id=L-1")
	assert.Contains(t, buf.String(), "SELECT 1")
	assert.NotNil(t, logger.Slog())
}
