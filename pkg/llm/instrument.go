package llm

import (
	"context"
	"errors"
	"learning_companion_backend/pkg/monitoring"
	"learning_companion_backend/pkg/tracing"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// InstrumentedProvider logs, measures and traces every call to inner.
type InstrumentedProvider struct {
	inner Provider
	log   *zap.Logger
}

func Instrument(p Provider, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &InstrumentedProvider{inner: p, log: log}
}

func (p *InstrumentedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)
	model := p.inner.ModelID()

	ctx, span := tracing.Tracer.Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", model),
		attribute.String("llm.purpose", purpose),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	resp, err := p.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	monitoring.LLMRequestDuration.WithLabelValues(model, purpose).Observe(elapsed.Seconds())

	fields := []zap.Field{
		zap.String("model", model),
		zap.String("purpose", purpose),
		zap.String("format", describe(req)),
		zap.Duration("latency", elapsed),
	}

	if err != nil {
		monitoring.LLMRequestCounter.WithLabelValues(model, purpose, errorLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.log.Warn("LLM request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	monitoring.LLMRequestCounter.WithLabelValues(model, purpose, "ok").Inc()
	monitoring.LLMTokens.WithLabelValues(model, "input").Add(float64(resp.Usage.InputTokens))
	monitoring.LLMTokens.WithLabelValues(model, "output").Add(float64(resp.Usage.OutputTokens))
	span.SetAttributes(attribute.Int("llm.output_tokens", resp.Usage.OutputTokens))

	p.log.Info("LLM request completed", append(fields,
		zap.Int("inputTokens", resp.Usage.InputTokens),
		zap.Int("outputTokens", resp.Usage.OutputTokens),
		zap.String("stopReason", resp.StopReason),
	)...)
	return resp, nil
}

func (p *InstrumentedProvider) ModelID() string {
	return p.inner.ModelID()
}

func errorLabel(err error) string {
	var (
		rl      *ErrRateLimit
		invalid *ErrInvalidResponse
		empty   *ErrEmptyResponse
		trunc   *ErrMaxTokensExceeded
	)
	switch {
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &invalid):
		return "invalid_" + string(invalid.Reason)
	case errors.As(err, &empty):
		return "empty"
	case errors.As(err, &trunc):
		return "truncated"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unavailable"
	}
}

func describe(req Request) string {
	if req.Schema == nil {
		return "text"
	}
	return req.Schema.Name + "/" + strconv.Itoa(req.MaxTokens)
}
