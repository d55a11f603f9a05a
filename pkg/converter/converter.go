package converter

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"
)

// Convert is the main entry point of the library. In ModeFile it converts
// opts.TargetPath and returns the file's error, if any. In ModeFolder it
// converts every eligible file beneath opts.TargetPath, collecting per-file
// failures in the report; only configuration and root traversal errors are
// returned.
func Convert(ctx context.Context, opts Options) (Report, error) {
	if err := opts.validate(); err != nil {
		if opts.Logger != nil {
			slog.New(opts.Logger).Error("Invalid options", slog.String("error", err.Error()))
		}
		return Report{}, err
	}
	logger := slog.New(opts.Logger)
	logger.Debug("Starting tab2space library execution",
		slog.String("version", opts.AppVersion),
		slog.String("mode", string(opts.Mode)))

	if opts.Mode == ModeFolder {
		engine, err := NewEngine(opts)
		if err != nil {
			return Report{}, err
		}
		return engine.Run(ctx)
	}
	return convertFile(ctx, opts, logger)
}

// convertFile handles ModeFile: one file, one result, the error surfaced.
func convertFile(ctx context.Context, opts Options, logger *slog.Logger) (Report, error) {
	startTime := time.Now()
	processor := NewFileProcessor(opts.Config, opts.EncodingHandler, opts.Logger)
	path := opts.TargetPath
	name := filepath.Base(path)

	if hookErr := opts.EventHooks.OnFileDiscovered(name); hookErr != nil {
		logger.Warn("Event hook OnFileDiscovered failed", slog.String("path", path), slog.String("error", hookErr.Error()))
	}
	res := processor.ProcessFile(ctx, path, opts.OutputOverride)

	message := ""
	if res.Err != nil {
		message = res.Err.Error()
	}
	if hookErr := opts.EventHooks.OnFileStatusUpdate(name, res.Status, message, res.Duration); hookErr != nil {
		logger.Warn("Event hook OnFileStatusUpdate failed", slog.String("path", path), slog.String("error", hookErr.Error()))
	}

	report := Report{
		Summary: ReportSummary{
			Mode:               ModeFile,
			InputPath:          path,
			OutputPath:         res.OutputPath,
			ConfigFilePath:     opts.ConfigFilePath,
			TabWidth:           opts.Config.TabWidth(),
			SafeMode:           opts.Config.SafeMode(),
			EraseTrailingSpace: opts.Config.EraseTrailingSpace(),
			TotalFilesScanned:  1,
			FatalErrorOccurred: res.Err != nil,
			Concurrency:        1,
			Timestamp:          time.Now().UTC(),
			AppVersion:         opts.AppVersion,
			SchemaVersion:      ReportSchemaVersion,
		},
		ProcessedFiles: []FileInfo{},
		SkippedFiles:   []SkippedInfo{},
		Errors:         []ErrorInfo{},
	}
	if res.Err != nil {
		report.Summary.ErrorCount = 1
		report.Errors = append(report.Errors, ErrorInfo{Path: path, Error: res.Err.Error(), IsFatal: true})
		logger.Error("Failed to convert file", slog.String("path", path), slog.String("error", res.Err.Error()))
	} else {
		report.Summary.ProcessedCount = 1
		if res.Changed {
			report.Summary.ChangedCount = 1
		}
		report.ProcessedFiles = append(report.ProcessedFiles, FileInfo{
			Path:         path,
			OutputPath:   res.OutputPath,
			Lines:        res.Lines,
			TabsExpanded: res.TabsExpanded,
			Changed:      res.Changed,
			SizeBytes:    res.SizeBytes,
			DurationMs:   res.Duration.Milliseconds(),
		})
	}
	report.Summary.DurationSeconds = time.Since(startTime).Seconds()

	if hookErr := opts.EventHooks.OnRunComplete(report); hookErr != nil {
		logger.Warn("Error reported by OnRunComplete hook", slog.String("hookError", hookErr.Error()))
	}
	return report, res.Err
}
