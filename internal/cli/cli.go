package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/stackvity/tab2space/pkg/converter"
)

// Run converts opts.TargetPath and prints the folder-mode summary to stdout.
//
// In file mode the file's error is returned, so the process exits non-zero.
// In folder mode per-file failures are only reported; configuration and
// root traversal errors are returned.
func Run(ctx context.Context, opts converter.Options, logger *slog.Logger, stdout io.Writer) error {
	logger.Debug("Starting conversion", slog.String("path", opts.TargetPath), slog.String("mode", string(opts.Mode)))

	report, err := converter.Convert(ctx, opts)
	if opts.Mode == converter.ModeFile {
		if err != nil {
			return err
		}
		logger.Info("File converted",
			slog.String("path", opts.TargetPath),
			slog.String("outputPath", report.Summary.OutputPath),
			slog.Bool("changed", report.Summary.ChangedCount > 0))
		return nil
	}

	if errors.Is(err, converter.ErrConfigValidation) {
		// Nothing ran, so there is no report worth printing.
		logger.Error("Core library execution failed", slog.Any("error", err))
		return err
	}
	if writeErr := converter.WriteReport(stdout, report, opts.OutputFormat); writeErr != nil {
		logger.Error("Failed to write report", slog.String("error", writeErr.Error()))
		if err == nil {
			err = fmt.Errorf("write report: %w", writeErr)
		}
	}
	if err != nil {
		logger.Error("Core library execution failed", slog.Any("error", err))
		return err
	}

	logger.Debug("Core library execution finished",
		slog.Int("processed", report.Summary.ProcessedCount),
		slog.Int("errors", report.Summary.ErrorCount))
	return nil
}
