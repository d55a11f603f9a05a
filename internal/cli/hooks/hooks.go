package hooks

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/stackvity/tab2space/pkg/converter"
)

// CLIHooks implements the converter.Hooks interface, bridging library events
// to the CLI's output: debug logging in verbose mode, otherwise a progress bar
// when one is attached.
type CLIHooks struct {
	logger         *slog.Logger
	verboseEnabled bool
	progressBar    ProgressBar
	mu             sync.Mutex // Protects progressBar and discovered
	discovered     int
}

// ProgressBar defines the interface needed to interact with the progress bar.
// *progressbar.ProgressBar satisfies it.
type ProgressBar interface {
	Add(num int) error
	ChangeMax(newMax int)
	Describe(description string)
	Finish() error
}

var _ ProgressBar = (*progressbar.ProgressBar)(nil)

// NewProgressBar returns a terminal progress bar writing to w. Its total
// grows as files are discovered.
func NewProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// NewCLIHooks creates a new CLIHooks instance. Pass nil for progBar when no
// bar should be drawn.
func NewCLIHooks(logger *slog.Logger, verboseEnabled bool, progBar ProgressBar) converter.Hooks {
	return &CLIHooks{
		logger:         logger,
		verboseEnabled: verboseEnabled,
		progressBar:    progBar,
	}
}

// OnFileDiscovered handles the event when the walker selects a file.
func (h *CLIHooks) OnFileDiscovered(path string) error {
	if h.verboseEnabled {
		h.logger.Debug("File discovered", "path", path)
		return nil
	}
	if h.progressBar != nil {
		h.mu.Lock()
		h.discovered++
		h.progressBar.ChangeMax(h.discovered)
		h.mu.Unlock()
	}
	return nil
}

// OnFileStatusUpdate handles events when a file's processing status changes.
// This method MUST be thread-safe.
func (h *CLIHooks) OnFileStatusUpdate(path string, status converter.Status, message string, duration time.Duration) error {
	if h.verboseEnabled {
		logLevel := slog.LevelDebug
		logMsg := "File status updated"
		attrs := []any{
			slog.String("path", path),
			slog.String("status", string(status)),
		}
		if duration > 0 {
			attrs = append(attrs, slog.Duration("duration", duration))
		}
		if message != "" {
			logKey := "message"
			if status == converter.StatusFailed {
				logKey = "error"
			}
			attrs = append(attrs, slog.String(logKey, message))
		}
		switch status {
		case converter.StatusSuccess, converter.StatusSkipped:
			logLevel = slog.LevelInfo
		case converter.StatusFailed:
			logLevel = slog.LevelError
			logMsg = "File processing failed"
		}
		h.logger.Log(context.Background(), logLevel, logMsg, attrs...)
		return nil
	}

	if h.progressBar == nil {
		// The library already logs failures as warnings.
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	switch status {
	case converter.StatusProcessing:
		h.progressBar.Describe(filepath.Base(path))
	case converter.StatusSuccess, converter.StatusFailed:
		// Skipped files were never discovered, so they are not counted.
		_ = h.progressBar.Add(1)
	}
	return nil
}

// OnRunComplete finalizes the progress bar. The summary itself is printed by
// the CLI after Convert returns.
func (h *CLIHooks) OnRunComplete(report converter.Report) error {
	if h.verboseEnabled {
		h.logger.Debug("Run complete",
			slog.Int("processed", report.Summary.ProcessedCount),
			slog.Int("errors", report.Summary.ErrorCount))
		return nil
	}
	if h.progressBar != nil {
		h.mu.Lock()
		_ = h.progressBar.Finish()
		h.mu.Unlock()
	}
	return nil
}
