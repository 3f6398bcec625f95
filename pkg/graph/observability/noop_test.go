package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	// None of these should panic.
	m.RecordNodeExecution(ctx, "node", time.Second, nil)
	m.RecordNodeExecution(ctx, "node", time.Second, errors.New("x"))
	m.RecordGraphRun(ctx, true, time.Second)
	m.RecordDispatch(ctx, "node", 3, 1)
}

func TestNoopSpanManager(t *testing.T) {
	m := NoopSpanManager{}
	ctx := context.Background()

	runCtx, runSpan := m.StartRunSpan(ctx, "analysis", "run-1")
	assert.Equal(t, ctx, runCtx)

	nodeCtx, nodeSpan := m.StartNodeSpan(ctx, "node")
	assert.Equal(t, ctx, nodeCtx)

	m.EndSpanWithError(runSpan, nil)
	m.EndSpanWithError(nodeSpan, errors.New("x"))
	m.AddSpanEvent(ctx, "event", attribute.String("k", "v"))
}
