package chat

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName identifies this package's instruments.
const meterName = "coachly/chat"

// Metrics holds the pipeline's OpenTelemetry counters. Parse fallbacks
// never surface to the user, so they must be countable rather than
// guessed at from logs.
type Metrics struct {
	parseFallbacks metric.Int64Counter
	toolDispatches metric.Int64Counter
	emptyTurns     metric.Int64Counter
}

// NewMetrics creates the chat instruments on the global meter provider.
// When no provider is installed the counters are no-ops.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	parseFallbacks, err := meter.Int64Counter("chat.parse.fallbacks",
		metric.WithDescription("Model-output parse failures recovered with a fallback value"))
	if err != nil {
		return nil, err
	}
	toolDispatches, err := meter.Int64Counter("chat.tool.dispatches",
		metric.WithDescription("Tool executions by outcome"))
	if err != nil {
		return nil, err
	}
	emptyTurns, err := meter.Int64Counter("chat.turns.empty",
		metric.WithDescription("Turns that streamed no output before completing"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		parseFallbacks: parseFallbacks,
		toolDispatches: toolDispatches,
		emptyTurns:     emptyTurns,
	}, nil
}

// CountParseFallback records one recovered parse failure.
func (m *Metrics) CountParseFallback(reason string) {
	if m == nil {
		return
	}
	m.parseFallbacks.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

// CountToolDispatch records one tool execution outcome ("ok" or "error").
func (m *Metrics) CountToolDispatch(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolDispatches.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("outcome", outcome),
		))
}

// CountEmptyTurn records a turn that finished without streaming any output.
func (m *Metrics) CountEmptyTurn() {
	if m == nil {
		return
	}
	m.emptyTurns.Add(context.Background(), 1)
}
