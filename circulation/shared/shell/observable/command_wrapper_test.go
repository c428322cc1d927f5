package observable_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/circulation/shared/shell/observable"
	"github.com/shelfwise/circulation/testutil/observability/testdoubles"
)

type testCommand struct{}

func (testCommand) CommandType() string { return "TestCommand" }

type testCommandHandler struct {
	result shell.HandlerResult
	err    error
}

func (h testCommandHandler) Handle(_ context.Context, _ testCommand) (string, shell.HandlerResult, error) {
	return "done", h.result, h.err
}

func newWrapper(
	t *testing.T,
	handler testCommandHandler,
) (*observable.CommandWrapper[testCommand, string], *testdoubles.MetricsCollectorSpy, *testdoubles.TracingCollectorSpy, *testdoubles.ContextualLoggerSpy) {

	t.Helper()

	metrics := testdoubles.NewMetricsCollectorSpy()
	tracing := testdoubles.NewTracingCollectorSpy()
	logger := testdoubles.NewContextualLoggerSpy()

	wrapper, err := observable.NewCommandWrapper[testCommand, string](
		handler,
		observable.WithCommandMetrics[testCommand, string](metrics),
		observable.WithCommandTracing[testCommand, string](tracing),
		observable.WithCommandContextualLogging[testCommand, string](logger),
	)
	require.NoError(t, err)

	return wrapper, metrics, tracing, logger
}

func Test_CommandWrapper_Handle_Success(t *testing.T) {
	// arrange
	wrapper, metrics, tracing, logger := newWrapper(t, testCommandHandler{result: shell.HandlerResult{RetryAttempts: 1}})

	// act
	result, handlerResult, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 1, handlerResult.RetryAttempts)
	assert.Equal(t, 1, metrics.CounterCount(shell.CommandHandlerCallsMetric, shell.BuildCommandLabels("TestCommand", shell.StatusSuccess)))
	assert.Len(t, metrics.Records(shell.CommandHandlerDurationMetric), 1)

	spans := tracing.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, shell.SpanNameCommandHandle, spans[0].Name)
	assert.Equal(t, shell.StatusSuccess, spans[0].Status)
	assert.Equal(t, "TestCommand", spans[0].Attributes[shell.LogAttrCommandType])

	assert.True(t, logger.HasRecord("debug", shell.LogMsgCommandStarted))
	assert.True(t, logger.HasRecord("info", shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_Idempotent(t *testing.T) {
	// arrange
	wrapper, metrics, _, _ := newWrapper(t, testCommandHandler{result: shell.HandlerResult{Idempotent: true}})

	// act
	_, _, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.CounterCount(shell.CommandHandlerIdempotentMetric, nil))
}

func Test_CommandWrapper_Handle_BusinessRuleViolationIsLoggedAsRejected(t *testing.T) {
	// arrange
	wrapper, metrics, tracing, logger := newWrapper(t, testCommandHandler{err: core.ErrPolicyViolation.ForUser("user-1")})

	// act
	_, _, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.ErrorIs(t, err, core.ErrPolicyViolation)
	assert.Equal(t, 1, metrics.CounterCount(shell.CommandHandlerRejectedMetric, nil))
	assert.Equal(t, shell.StatusRejected, tracing.FinishedSpans()[0].Status)
	assert.True(t, logger.HasRecord("info", shell.LogMsgCommandRejected))

	kind, found := logger.ArgValue(shell.LogMsgCommandRejected, shell.LogAttrErrorKind)
	assert.True(t, found)
	assert.Equal(t, string(core.KindPolicyViolation), kind)
}

func Test_CommandWrapper_Handle_InfrastructureFailureIsLoggedAsError(t *testing.T) {
	// arrange
	wrapper, metrics, tracing, logger := newWrapper(t, testCommandHandler{err: errors.New("connection reset")})

	// act
	_, _, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.Error(t, err)
	assert.Equal(t, 1, metrics.CounterCount(shell.CommandHandlerCallsMetric, map[string]string{shell.LogAttrStatus: shell.StatusError}))
	assert.Equal(t, shell.StatusError, tracing.FinishedSpans()[0].Status)
	assert.True(t, logger.HasRecord("error", shell.LogMsgCommandFailed))
}
