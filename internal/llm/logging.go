package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/store"
)

// EventSink receives one record per LLM call. store.EventRepo satisfies it.
type EventSink interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// LoggingProvider records every LLM request in the event log.
type LoggingProvider struct {
	inner    Provider
	provider string
	sink     EventSink
	log      *zap.Logger
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, providerName string, sink EventSink, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingProvider{inner: p, provider: providerName, sink: sink, log: log.Named("llm")}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	l.log.Debug("llm call",
		zap.String("purpose", data.Purpose),
		zap.String("model", data.Model),
		zap.Int64("latency_ms", data.LatencyMs),
		zap.Bool("success", data.Success),
	)

	// The event log must not fail the request; a cancelled ctx still gets
	// its failed call recorded.
	if logErr := l.sink.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
		l.log.Warn("failed to record LLM request event", zap.Error(logErr))
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
