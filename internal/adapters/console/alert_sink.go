// Package console contains terminal-facing sink adapters.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/carjohnson/annosync/internal/ports/secondary"
)

// AlertSink implements secondary.AlertSink by printing warnings to a
// terminal. Writes go to stderr so piped snapshot output stays clean.
type AlertSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewAlertSink creates a sink writing to stderr.
func NewAlertSink() *AlertSink {
	return &AlertSink{out: os.Stderr}
}

// NewAlertSinkWriter creates a sink writing to w, for tests.
func NewAlertSinkWriter(w io.Writer) *AlertSink {
	return &AlertSink{out: w}
}

// Warn prints a highlighted warning line.
func (s *AlertSink) Warn(ctx context.Context, warning secondary.Warning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := color.New(color.FgYellow, color.Bold).Sprint(warning.Title)
	if _, err := fmt.Fprintf(s.out, "%s %s\n", title, warning.Message); err != nil {
		return fmt.Errorf("failed to write warning: %w", err)
	}
	return nil
}

var _ secondary.AlertSink = (*AlertSink)(nil)
