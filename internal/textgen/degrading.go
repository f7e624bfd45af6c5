package textgen

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"projecthub/pkg/circuitbreaker"
	"projecthub/pkg/config"
	"projecthub/pkg/metrics"
)

// Result is a generated text, or the prompt's fallback when Degraded is set.
type Result struct {
	Text     string
	Degraded bool
	Reason   string
}

// Degrading never fails: rate limiting, an open breaker, timeouts and model errors
// all yield the placeholder text.
type Degrading struct {
	gen     Generator
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

func NewDegrading(gen Generator, cfg config.TextGenConfig, logger *zap.Logger) *Degrading {
	limit := rate.Inf
	if cfg.RequestsPerMin > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMin) / 60.0)
	}
	burst := cfg.RequestsPerMin
	if burst <= 0 {
		burst = 1
	}

	cbCfg := circuitbreaker.DefaultConfig()
	if cfg.FailureThreshold > 0 {
		cbCfg.FailureThreshold = cfg.FailureThreshold
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Degrading{
		gen:     gen,
		limiter: rate.NewLimiter(limit, burst),
		breaker: circuitbreaker.NewCircuitBreaker(cbCfg),
		timeout: timeout,
		logger:  logger,
	}
}

func (d *Degrading) Generate(ctx context.Context, p Prompt) Result {
	start := time.Now()

	if !d.limiter.Allow() {
		return d.degrade(p, "rate_limited", nil, start)
	}

	var text string
	err := d.breaker.Execute(func() error {
		genCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		out, err := d.gen.Generate(genCtx, p)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen):
			reason = "circuit_open"
		case errors.Is(err, ErrDisabled):
			reason = "disabled"
		case errors.Is(err, context.DeadlineExceeded):
			reason = "timeout"
		}
		return d.degrade(p, reason, err, start)
	}

	metrics.RecordTextGeneration("ok", time.Since(start))
	return Result{Text: text}
}

func (d *Degrading) degrade(p Prompt, reason string, err error, start time.Time) Result {
	metrics.RecordTextGeneration(reason, time.Since(start))
	if reason != "disabled" {
		d.logger.Warn("Text generation degraded to placeholder",
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
	return Result{Text: p.Fallback, Degraded: true, Reason: reason}
}
