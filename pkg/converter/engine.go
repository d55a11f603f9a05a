package converter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Engine converts every eligible file beneath a root directory.
//
// It is best effort: a file that cannot be read or written is recorded in
// the report and logged as a warning, and the remaining files are still
// converted. Only an unreadable root aborts the run.
type Engine struct {
	opts        *Options
	logger      *slog.Logger
	processor   *FileProcessor
	aggregator  *reportAggregator
	concurrency int
}

// fileTask pairs a discovered file with its re-rooted output path.
type fileTask struct {
	relPath    string
	inputPath  string
	outputPath string
}

// NewEngine validates opts and creates an Engine for folder mode.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "engine"))

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
		logger.Debug("Concurrency auto-detected", slog.Int("count", concurrency))
	}
	opts.Concurrency = concurrency

	return &Engine{
		opts:        &opts,
		logger:      logger,
		processor:   NewFileProcessor(opts.Config, opts.EncodingHandler, opts.Logger),
		aggregator:  newReportAggregator(),
		concurrency: concurrency,
	}, nil
}

// Run walks the root, converts each eligible file, and returns the report.
// The returned error is non-nil only for fatal conditions: the root cannot be
// traversed, the output root cannot be derived, or ctx was cancelled.
func (e *Engine) Run(ctx context.Context) (report Report, err error) {
	startTime := time.Now()
	cfg := e.opts.Config
	e.logger.Info("Starting folder conversion",
		slog.String("path", e.opts.TargetPath),
		slog.Int("tabWidth", cfg.TabWidth()),
		slog.Bool("safeMode", cfg.SafeMode()),
		slog.Any("extensions", cfg.CodeExtensions()),
		slog.Int("concurrency", e.concurrency))

	outputRoot := ""
	defer func() {
		report = e.aggregator.getReport(e.opts, outputRoot, startTime, err != nil)
		e.logger.Info("Folder conversion finished",
			slog.Duration("duration", time.Since(startTime)),
			slog.Int("processed", report.Summary.ProcessedCount),
			slog.Int("changed", report.Summary.ChangedCount),
			slog.Int("skipped", report.Summary.SkippedCount),
			slog.Int("errors", report.Summary.ErrorCount),
			slog.Bool("fatalErrorOccurred", report.Summary.FatalErrorOccurred))
		if hookErr := e.opts.EventHooks.OnRunComplete(report); hookErr != nil {
			e.logger.Warn("OnRunComplete hook returned an error", slog.String("error", hookErr.Error()))
		}
	}()

	outputRoot, err = OutputRoot(e.opts.TargetPath, e.opts.OutputOverride, cfg)
	if err != nil {
		e.logger.Error("Cannot determine output root", slog.String("error", err.Error()))
		return report, err
	}

	walker, err := NewWalker(e.opts, e.opts.TargetPath, outputRoot, e.opts.Logger)
	if err != nil {
		e.logger.Error("Failed to initialize directory walker", slog.String("error", err.Error()))
		return report, err
	}
	walked, err := walker.Collect(ctx)
	if err != nil {
		return report, fmt.Errorf("directory walk failed: %w", err)
	}
	for _, s := range walked.Skipped {
		e.aggregator.addSkipped(s)
	}

	tasks := make([]fileTask, 0, len(walked.Files))
	for _, rel := range walked.Files {
		inputPath := filepath.Join(walked.Root, rel)
		outputPath, rerootErr := rerootPath(walked.Root, outputRoot, inputPath)
		if rerootErr != nil {
			e.recordFailure(filepath.ToSlash(rel), inputPath, rerootErr, 0)
			continue
		}
		tasks = append(tasks, fileTask{relPath: filepath.ToSlash(rel), inputPath: inputPath, outputPath: outputPath})
	}

	if e.concurrency == 1 {
		e.runSequential(ctx, tasks)
	} else {
		e.runWorkers(ctx, tasks)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		e.logger.Info("Processing run cancelled", slog.String("reason", ctxErr.Error()))
		return report, ctxErr
	}
	return report, nil
}

// runSequential converts one file at a time, in walk order.
func (e *Engine) runSequential(ctx context.Context, tasks []fileTask) {
	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		e.processTask(ctx, task)
	}
}

// runWorkers fans tasks out to a fixed pool of workers. Output paths never
// overlap, and directory creation is idempotent, so workers share nothing
// but the aggregator.
func (e *Engine) runWorkers(ctx context.Context, tasks []fileTask) {
	workerChan := make(chan fileTask, e.concurrency)
	var wg sync.WaitGroup
	e.logger.Debug("Starting worker pool", slog.Int("count", e.concurrency))
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go e.processFilesWorker(ctx, &wg, i, workerChan)
	}

dispatch:
	for _, task := range tasks {
		select {
		case workerChan <- task:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(workerChan)
	wg.Wait()
}

// processFilesWorker is the main function executed by each worker goroutine.
func (e *Engine) processFilesWorker(ctx context.Context, wg *sync.WaitGroup, workerID int, workerChan <-chan fileTask) {
	wLogger := e.logger.With(slog.Int("workerID", workerID))
	defer wg.Done()
	wLogger.Debug("Worker started")
	for task := range workerChan {
		if ctx.Err() != nil {
			continue // drain without processing
		}
		e.processTask(ctx, task)
	}
	wLogger.Debug("Worker shutting down (channel closed)")
}

// processTask converts a single file and records its outcome. A panic in the
// conversion is recorded as that file's failure instead of ending the run.
func (e *Engine) processTask(ctx context.Context, task fileTask) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Panic recovered while processing file", slog.String("path", task.relPath), slog.Any("panicValue", r))
			e.recordFailure(task.relPath, task.inputPath, fmt.Errorf("panic: %v", r), 0)
		}
	}()

	if hookErr := e.opts.EventHooks.OnFileStatusUpdate(task.relPath, StatusProcessing, "", 0); hookErr != nil {
		e.logger.Warn("Event hook OnFileStatusUpdate failed", slog.String("path", task.relPath), slog.String("error", hookErr.Error()))
	}
	res := e.processor.ProcessFile(ctx, task.inputPath, task.outputPath)
	if res.Err != nil {
		e.recordFailure(task.relPath, task.inputPath, res.Err, res.Duration)
		return
	}
	e.aggregator.addProcessed(FileInfo{
		Path:         task.relPath,
		OutputPath:   res.OutputPath,
		Lines:        res.Lines,
		TabsExpanded: res.TabsExpanded,
		Changed:      res.Changed,
		SizeBytes:    res.SizeBytes,
		DurationMs:   res.Duration.Milliseconds(),
	})
	if hookErr := e.opts.EventHooks.OnFileStatusUpdate(task.relPath, StatusSuccess, "", res.Duration); hookErr != nil {
		e.logger.Warn("Event hook OnFileStatusUpdate failed", slog.String("path", task.relPath), slog.String("error", hookErr.Error()))
	}
}

// recordFailure logs a per-file failure as a warning and adds it to the report.
func (e *Engine) recordFailure(relPath, inputPath string, err error, duration time.Duration) {
	e.logger.Warn("Failed to process file", slog.String("path", inputPath), slog.String("error", err.Error()))
	e.aggregator.addError(ErrorInfo{Path: relPath, Error: err.Error()})
	if hookErr := e.opts.EventHooks.OnFileStatusUpdate(relPath, StatusFailed, err.Error(), duration); hookErr != nil {
		e.logger.Warn("Event hook OnFileStatusUpdate failed", slog.String("path", relPath), slog.String("error", hookErr.Error()))
	}
}

// --- reportAggregator ---

// reportAggregator manages the collection of results during the run.
type reportAggregator struct {
	mu             sync.Mutex
	processedFiles []FileInfo
	skippedFiles   []SkippedInfo
	errors         []ErrorInfo
	changedCount   int
}

// newReportAggregator creates a new report aggregator.
func newReportAggregator() *reportAggregator {
	return &reportAggregator{
		processedFiles: make([]FileInfo, 0, 64),
		skippedFiles:   make([]SkippedInfo, 0, 64),
		errors:         make([]ErrorInfo, 0, 8),
	}
}

// addProcessed appends a FileInfo to the list (thread-safe).
func (a *reportAggregator) addProcessed(info FileInfo) {
	a.mu.Lock()
	a.processedFiles = append(a.processedFiles, info)
	if info.Changed {
		a.changedCount++
	}
	a.mu.Unlock()
}

// addSkipped appends a SkippedInfo to the list (thread-safe).
func (a *reportAggregator) addSkipped(info SkippedInfo) {
	a.mu.Lock()
	a.skippedFiles = append(a.skippedFiles, info)
	a.mu.Unlock()
}

// addError appends an ErrorInfo to the list (thread-safe).
func (a *reportAggregator) addError(info ErrorInfo) {
	a.mu.Lock()
	a.errors = append(a.errors, info)
	a.mu.Unlock()
}

// getReport compiles and returns the final Report struct.
func (a *reportAggregator) getReport(opts *Options, outputRoot string, startTime time.Time, fatalOccurred bool) Report {
	a.mu.Lock()
	processed := append([]FileInfo(nil), a.processedFiles...)
	skipped := append([]SkippedInfo(nil), a.skippedFiles...)
	errorsList := append([]ErrorInfo(nil), a.errors...)
	changed := a.changedCount
	a.mu.Unlock()

	return Report{
		Summary: ReportSummary{
			Mode:               ModeFolder,
			InputPath:          opts.TargetPath,
			OutputPath:         outputRoot,
			ConfigFilePath:     opts.ConfigFilePath,
			TabWidth:           opts.Config.TabWidth(),
			SafeMode:           opts.Config.SafeMode(),
			EraseTrailingSpace: opts.Config.EraseTrailingSpace(),
			TotalFilesScanned:  len(processed) + len(skipped) + len(errorsList),
			ProcessedCount:     len(processed),
			ChangedCount:       changed,
			SkippedCount:       len(skipped),
			ErrorCount:         len(errorsList),
			FatalErrorOccurred: fatalOccurred,
			DurationSeconds:    time.Since(startTime).Seconds(),
			Concurrency:        opts.Concurrency,
			Timestamp:          time.Now().UTC(),
			AppVersion:         opts.AppVersion,
			SchemaVersion:      ReportSchemaVersion,
		},
		ProcessedFiles: processed,
		SkippedFiles:   skipped,
		Errors:         errorsList,
	}
}
