package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"opschat/internal/domain"
)

// =============================================================================
// Config
// =============================================================================

// Config controls retry behaviour for calls to the generation service.
type Config struct {
	MaxRetries     int           // Maximum number of retry attempts (0 = no retries)
	InitialBackoff time.Duration // Delay before first retry
	MaxBackoff     time.Duration // Upper bound on backoff duration
	Multiplier     float64       // Backoff multiplier (e.g. 2.0 for exponential)
}

// DefaultConfig returns sensible retry defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// FromDomain converts the millisecond-based config file shape.
func FromDomain(c domain.RetryConfig) Config {
	cfg := DefaultConfig()
	if c.MaxRetries >= 0 {
		cfg.MaxRetries = c.MaxRetries
	}
	if c.InitialBackoff > 0 {
		cfg.InitialBackoff = time.Duration(c.InitialBackoff) * time.Millisecond
	}
	if c.MaxBackoff > 0 {
		cfg.MaxBackoff = time.Duration(c.MaxBackoff) * time.Millisecond
	}
	if c.Multiplier >= 1 {
		cfg.Multiplier = float64(c.Multiplier)
	}
	return cfg
}

// Validate checks that all Config fields are within acceptable ranges.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("retry: MaxRetries must be >= 0")
	}
	if c.InitialBackoff <= 0 {
		return errors.New("retry: InitialBackoff must be > 0")
	}
	if c.MaxBackoff <= 0 {
		return errors.New("retry: MaxBackoff must be > 0")
	}
	if c.Multiplier < 1.0 {
		return errors.New("retry: Multiplier must be >= 1.0")
	}
	return nil
}

// =============================================================================
// Error Classification
// =============================================================================

// retryableStatusCodes are HTTP status codes that indicate a transient failure.
var retryableStatusCodes = []string{"429", "500", "502", "503", "504", "529"}

// IsRetryable returns true when err represents a transient failure that may
// succeed on retry (5xx, 429, timeout, connection refused, EOF).
// Context errors (Canceled, DeadlineExceeded) are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()

	for _, code := range retryableStatusCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}

	if strings.Contains(msg, "connection refused") {
		return true
	}
	if strings.Contains(msg, "EOF") {
		return true
	}

	return false
}

// =============================================================================
// RetryableProvider (Decorator)
// =============================================================================

// RetryableProvider wraps an LLMProvider with retry-on-transient-error logic.
// Streaming calls are retried only while no fragment has been delivered yet;
// once output reached the caller a retry would duplicate it.
type RetryableProvider struct {
	inner     domain.LLMProvider
	config    Config
	sleepFunc func(time.Duration) // injectable for testing
}

// NewRetryableProvider returns a decorator that retries provider calls on
// transient errors. inner must not be nil.
func NewRetryableProvider(inner domain.LLMProvider, cfg Config) *RetryableProvider {
	if inner == nil {
		panic("retry: inner provider must not be nil")
	}
	return &RetryableProvider{
		inner:     inner,
		config:    cfg,
		sleepFunc: time.Sleep,
	}
}

// Generate implements domain.LLMProvider.
func (p *RetryableProvider) Generate(ctx context.Context, prompt string) (string, error) {
	var result string
	err := p.do(ctx, func() (bool, error) {
		var callErr error
		result, callErr = p.inner.Generate(ctx, prompt)
		return true, callErr
	})
	return result, err
}

// GenerateStream implements domain.LLMProvider.
func (p *RetryableProvider) GenerateStream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	var result string
	err := p.do(ctx, func() (bool, error) {
		delivered := false
		observe := func(chunk string) {
			delivered = true
			if onChunk != nil {
				onChunk(chunk)
			}
		}
		var callErr error
		result, callErr = p.inner.GenerateStream(ctx, prompt, observe)
		return !delivered, callErr
	})
	return result, err
}

// do runs one attempt plus up to MaxRetries retries. The attempt function
// reports whether a retry is still safe alongside its error.
func (p *RetryableProvider) do(ctx context.Context, attempt func() (retrySafe bool, err error)) error {
	backoff := p.config.InitialBackoff

	var lastErr error
	for i := 0; i <= p.config.MaxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		retrySafe, err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retrySafe || !IsRetryable(err) || i == p.config.MaxRetries {
			break
		}

		p.sleepFunc(backoff)
		backoff = time.Duration(float64(backoff) * p.config.Multiplier)
		if backoff > p.config.MaxBackoff {
			backoff = p.config.MaxBackoff
		}
	}
	return lastErr
}

// Ensure RetryableProvider implements domain.LLMProvider at compile time.
var _ domain.LLMProvider = (*RetryableProvider)(nil)
