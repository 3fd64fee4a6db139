package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ReconnectConfig holds configuration for reconnection logic
type ReconnectConfig struct {
	MaxAttempts int           // Maximum number of reconnection attempts, <= 0 retries until ctx is done
	Backoff     time.Duration // Backoff duration before the second attempt
	Multiplier  float64       // Backoff multiplier for exponential backoff
	MaxBackoff  time.Duration // Maximum backoff duration
	// IsRetryable classifies failures; nil treats every error as transient
	IsRetryable IsRetryableError
}

// DefaultReconnectConfig returns a default reconnection configuration
func DefaultReconnectConfig() *ReconnectConfig {
	return &ReconnectConfig{
		MaxAttempts: 5,
		Backoff:     1 * time.Second,
		Multiplier:  2.0,
		MaxBackoff:  30 * time.Second,
	}
}

// ReconnectFunc is a function that attempts to reconnect
type ReconnectFunc func(ctx context.Context) error

// Reconnect attempts to reconnect with exponential backoff until fn
// succeeds, a permanent error occurs, the attempt budget runs out or ctx is done.
func Reconnect(ctx context.Context, fn ReconnectFunc, config *ReconnectConfig, logger zerolog.Logger) error {
	if config == nil {
		config = DefaultReconnectConfig()
	}

	attempt := 0
	err := Retry(ctx, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", config.MaxAttempts).
				Msg("Reconnection attempt failed")
			return err
		}
		if attempt > 1 {
			logger.Info().Int("attempts", attempt).Msg("Reconnection successful")
		}
		return nil
	}, &RetryConfig{
		MaxAttempts:       config.MaxAttempts,
		InitialBackoff:    config.Backoff,
		MaxBackoff:        config.MaxBackoff,
		BackoffMultiplier: config.Multiplier,
	}, config.IsRetryable)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if config.IsRetryable != nil && !config.IsRetryable(err) {
			return fmt.Errorf("permanent reconnection failure: %w", err)
		}
		return fmt.Errorf("failed to reconnect after %d attempts: %w", attempt, err)
	}
	return nil
}
