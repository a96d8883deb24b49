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

// ProgressReporter implements secondary.ProgressReporter by printing
// completion transitions to a terminal.
type ProgressReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewProgressReporter creates a reporter writing to stderr.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{out: os.Stderr}
}

// NewProgressReporterWriter creates a reporter writing to w, for tests.
func NewProgressReporterWriter(w io.Writer) *ProgressReporter {
	return &ProgressReporter{out: w}
}

// Report prints a progress transition line.
func (r *ProgressReporter) Report(ctx context.Context, report secondary.ProgressReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	scope := report.StudyUID
	if report.SeriesUID != "" {
		scope = fmt.Sprintf("%s/%s", report.StudyUID, report.SeriesUID)
	}

	status := report.Status
	if status == "done" {
		status = color.New(color.FgGreen, color.Bold).Sprint(status)
	}
	if _, err := fmt.Fprintf(r.out, "progress: %s %s (%s)\n", scope, status, report.Username); err != nil {
		return fmt.Errorf("failed to write progress report: %w", err)
	}
	return nil
}

var _ secondary.ProgressReporter = (*ProgressReporter)(nil)
