package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// SnapshotSink implements secondary.SnapshotSink by writing snapshots
// as JSON lines to stdout. Used when no websocket consumer is
// configured.
type SnapshotSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewSnapshotSink creates a sink writing to stdout.
func NewSnapshotSink() *SnapshotSink {
	return &SnapshotSink{out: os.Stdout}
}

// NewSnapshotSinkWriter creates a sink writing to w, for tests.
func NewSnapshotSinkWriter(w io.Writer) *SnapshotSink {
	return &SnapshotSink{out: w}
}

// Publish writes one snapshot as a JSON line.
func (s *SnapshotSink) Publish(ctx context.Context, snap secondary.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc := json.NewEncoder(s.out)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

var _ secondary.SnapshotSink = (*SnapshotSink)(nil)
