package llm

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	DefaultTimeout     = 120 * time.Second
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.0
)

var tracer = otel.Tracer("accreditation/llm")

// Transport sends one fully built request to a provider.
type Transport interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

type Result struct {
	Content  string
	Strategy string
	Failures []AttemptFailure
}

type ClientConfig struct {
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	Strategies  []Strategy
	Logger      *zap.Logger
}

// Client walks the strategy chain until one attempt returns content.
type Client struct {
	transport  Transport
	cfg        ClientConfig
	strategies []Strategy
	logger     *zap.Logger
	sleep      func(context.Context, time.Duration) error
}

func NewClient(transport Transport, cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies(cfg.Temperature)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		transport:  transport,
		cfg:        cfg,
		strategies: strategies,
		logger:     logger,
		sleep:      sleepContext,
	}
}

func (c *Client) Model() string { return c.cfg.Model }

// Complete sends messages through each strategy in order. Every attempt is
// bounded by the configured timeout. When all strategies fail the returned
// error is a *CallError listing each attempt.
func (c *Client) Complete(ctx context.Context, messages []Message) (Result, error) {
	ctx, span := tracer.Start(ctx, "llm.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("transport", c.transport.Name()),
		attribute.String("model", c.cfg.Model),
	)

	base := Request{
		Model:     c.cfg.Model,
		Messages:  messages,
		MaxTokens: c.cfg.MaxTokens,
		Timeout:   c.cfg.Timeout,
	}
	var res Result
	for i, strategy := range c.strategies {
		req := strategy.Build(base)
		started := time.Now()
		content, err := c.attempt(ctx, req)
		if err == nil && strings.TrimSpace(content) == "" {
			err = errEmptyResponse
		}
		if err == nil {
			res.Content = content
			res.Strategy = strategy.Name
			span.SetAttributes(attribute.String("strategy", strategy.Name), attribute.Int("failed_attempts", len(res.Failures)))
			return res, nil
		}

		class := FailureEmpty
		if err != errEmptyResponse {
			class = classifyTransportError(err)
		}
		res.Failures = append(res.Failures, AttemptFailure{
			Strategy: strategy.Name,
			Class:    class,
			Err:      err,
			Message:  err.Error(),
			Elapsed:  time.Since(started),
		})
		c.logger.Warn("llm strategy failed",
			zap.String("strategy", strategy.Name),
			zap.String("class", class.String()),
			zap.Error(err),
		)
		if class == FailureCanceled || ctx.Err() != nil {
			break
		}
		if i < len(c.strategies)-1 {
			if err := c.sleep(ctx, backoffDelay(class, i+1)); err != nil {
				break
			}
		}
	}
	span.SetAttributes(attribute.Int("failed_attempts", len(res.Failures)))
	return res, &CallError{Attempts: res.Failures}
}

func (c *Client) attempt(ctx context.Context, req Request) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.transport.Complete(ctx, req)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
