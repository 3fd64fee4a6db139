// Package bridge connects the reaction engine to a game host over a
// WebSocket. The host streams world snapshots and voice frames; the
// service answers with actuation directives and voice notifications.
package bridge

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-mechanics/internal/config"
	"github.com/lexiqai/voice-mechanics/internal/observability"
	"github.com/lexiqai/voice-mechanics/internal/reaction"
	"github.com/lexiqai/voice-mechanics/internal/resilience"
)

var upgrader = websocket.Upgrader{
	// hosts are servers, not browsers; HOST_TOKEN is the access control
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// HandleHostWS is the entry point for hosts connecting to /streams/host
func HandleHostWS(cfg *config.Config, settings *reaction.SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := observability.WithComponent("bridge")

		if !authorized(r, cfg.HostToken) {
			logger.Warn().Str("remote", r.RemoteAddr).Msg("Rejected host without valid token")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}

		session := NewSession(conn, cfg, settings)
		logger.Info().
			Str("session_id", session.ID()).
			Str("remote", r.RemoteAddr).
			Msg("Host connected")

		if err := session.Run(r.Context()); err != nil {
			logger.Warn().Err(err).Str("session_id", session.ID()).Msg("Host session failed")
		}
	}
}

func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	want := "Bearer " + token
	got := r.Header.Get("Authorization")
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// DialHost connects to the host at cfg.HostURL and serves sessions until
// ctx is done. Lost connections are re-established with backoff; DialHost
// returns an error only when the reconnect budget is exhausted.
func DialHost(ctx context.Context, cfg *config.Config, settings *reaction.SettingsStore, logger zerolog.Logger) error {
	header := http.Header{}
	if cfg.HostToken != "" {
		header.Set("Authorization", "Bearer "+cfg.HostToken)
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	reconnect := &resilience.ReconnectConfig{
		MaxAttempts: cfg.ReconnectMaxAttempts,
		Backoff:     time.Duration(cfg.ReconnectBackoff) * time.Millisecond,
		Multiplier:  2.0,
		MaxBackoff:  30 * time.Second,
		IsRetryable: retryableDial,
	}

	for {
		var conn *websocket.Conn
		err := resilience.Reconnect(ctx, func(ctx context.Context) error {
			c, resp, err := dialer.DialContext(ctx, cfg.HostURL, header)
			if err != nil {
				if resp != nil {
					return &handshakeError{status: resp.StatusCode, err: err}
				}
				return fmt.Errorf("dial %s: %w", cfg.HostURL, err)
			}
			conn = c
			return nil
		}, reconnect, logger)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		session := NewSession(conn, cfg, settings)
		logger.Info().
			Str("session_id", session.ID()).
			Str("host_url", cfg.HostURL).
			Msg("Connected to host")

		if err := session.Run(ctx); err != nil {
			logger.Warn().Err(err).Str("session_id", session.ID()).Msg("Host session failed")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handshakeError is a dial the host answered with a non-upgrade response
type handshakeError struct {
	status int
	err    error
}

func (e *handshakeError) Error() string {
	return fmt.Sprintf("host refused upgrade with status %d: %v", e.status, e.err)
}

func (e *handshakeError) Unwrap() error {
	return e.err
}

// retryableDial retries network failures and host-side 5xx answers. A host
// that rejects the token or path will keep rejecting it.
func retryableDial(err error) bool {
	var hs *handshakeError
	if errors.As(err, &hs) {
		return hs.status >= http.StatusInternalServerError
	}
	return resilience.IsRetryableNetworkError(err)
}
