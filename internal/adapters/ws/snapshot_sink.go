// Package ws delivers snapshots to a downstream consumer over a
// websocket connection.
package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// SnapshotSink implements secondary.SnapshotSink over an outbound
// websocket. The connection is dialed lazily on first publish and
// redialed after a write failure, so a consumer restart does not wedge
// the engine.
type SnapshotSink struct {
	url    string
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSnapshotSink creates a sink targeting url (ws:// or wss://).
func NewSnapshotSink(url string) *SnapshotSink {
	return &SnapshotSink{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
	}
}

// Publish delivers one snapshot, redialing once if the cached
// connection has gone stale.
func (s *SnapshotSink) Publish(ctx context.Context, snap secondary.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		if err := s.dialLocked(ctx); err != nil {
			return err
		}
	}

	if err := s.conn.WriteJSON(snap); err == nil {
		return nil
	}

	// Stale connection. Drop it, redial and retry once.
	s.conn.Close()
	s.conn = nil
	if err := s.dialLocked(ctx); err != nil {
		return err
	}
	if err := s.conn.WriteJSON(snap); err != nil {
		s.conn.Close()
		s.conn = nil
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Close shuts down the cached connection if one exists.
func (s *SnapshotSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *SnapshotSink) dialLocked(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial snapshot sink %s: %w", s.url, err)
	}
	s.conn = conn
	return nil
}

var _ secondary.SnapshotSink = (*SnapshotSink)(nil)
