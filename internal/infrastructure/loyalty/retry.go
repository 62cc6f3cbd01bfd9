package loyalty

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/config"
)

type TokenClient interface {
	GetAccessToken(ctx context.Context) (*application.TokenResponse, error)
}

// RetryTokenClient retries token acquisition with exponential backoff.
type RetryTokenClient struct {
	inner      TokenClient
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryTokenClient(inner TokenClient, cfg config.RetryConfig) *RetryTokenClient {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryTokenClient{
		inner:      inner,
		baseDelay:  time.Duration(cfg.BaseDelayMS) * time.Millisecond,
		maxRetries: maxRetries,
	}
}

func (r *RetryTokenClient) GetAccessToken(ctx context.Context) (*application.TokenResponse, error) {
	return retry(r, ctx, r.inner.GetAccessToken)
}

// Generic retry helper
func retry[T any](r *RetryTokenClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if gwErr, ok := IsGatewayError(err); ok {
		return gwErr.IsRetryable()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	// Transport failures and timeouts.
	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryTokenClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if r.baseDelay <= 0 {
		return 0
	}

	jitter := time.Duration(rand.Int63n(int64(r.baseDelay)))

	return base + jitter
}
