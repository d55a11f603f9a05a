package converter

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stackvity/tab2space/pkg/converter/encoding"
)

// FileResult is the outcome of converting one file. Failures are carried in
// Err and Status rather than returned separately, so callers that process
// many files can inspect and log every outcome the same way.
type FileResult struct {
	InputPath    string
	OutputPath   string
	Status       Status // StatusSuccess or StatusFailed
	Lines        int
	TabsExpanded int
	Changed      bool // Output differs from input
	SizeBytes    int64
	Duration     time.Duration
	Err          error // Wraps ErrReadFailed or ErrWriteFailed when Status is StatusFailed
}

// FileProcessor handles the read, expand, write pipeline for a single file.
// It holds no per-file state and is safe for concurrent use.
type FileProcessor struct {
	cfg             Config
	encodingHandler encoding.EncodingHandler
	logger          *slog.Logger
}

// NewFileProcessor creates a new FileProcessor.
func NewFileProcessor(cfg Config, encHandler encoding.EncodingHandler, loggerHandler slog.Handler) *FileProcessor {
	return &FileProcessor{
		cfg:             cfg,
		encodingHandler: encHandler,
		logger:          slog.New(loggerHandler).With(slog.String("component", "processor")),
	}
}

// ProcessFile converts inputPath and writes the result to outputOverride, or,
// when that is empty, to the path chosen by ResolveOutputPath. The output is
// only created after the whole file has been read and expanded in memory,
// and is replaced atomically, so a failure never leaves a truncated file.
func (p *FileProcessor) ProcessFile(ctx context.Context, inputPath, outputOverride string) (result FileResult) {
	startTime := time.Now()
	result = FileResult{
		InputPath:  inputPath,
		OutputPath: ResolveOutputPath(inputPath, outputOverride, p.cfg),
		Status:     StatusProcessing,
	}
	logArgs := []any{slog.String("path", inputPath), slog.String("outputPath", result.OutputPath)}

	defer func() {
		result.Duration = time.Since(startTime)
		if result.Err != nil {
			result.Status = StatusFailed
			p.logger.Debug("Processor finished file task",
				append(logArgs, slog.String("status", string(result.Status)), slog.String("error", result.Err.Error()))...)
			return
		}
		result.Status = StatusSuccess
		p.logger.Debug("Processor finished file task",
			append(logArgs, slog.String("status", string(result.Status)), slog.Duration("duration", result.Duration))...)
	}()

	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	// 1. Read
	p.logger.Debug("Parsing file", logArgs...)
	info, err := os.Stat(inputPath)
	if err != nil {
		result.Err = fmt.Errorf("%w: %s: %w", ErrReadFailed, inputPath, err)
		return result
	}
	if info.IsDir() {
		result.Err = fmt.Errorf("%w: %s: is a directory", ErrReadFailed, inputPath)
		return result
	}
	result.SizeBytes = info.Size()
	source, err := os.ReadFile(inputPath)
	if err != nil {
		result.Err = fmt.Errorf("%w: %s: %w", ErrReadFailed, inputPath, err)
		return result
	}

	// 2. Decode
	decoded, err := p.encodingHandler.Decode(source)
	if err != nil {
		result.Err = fmt.Errorf("%w: %w: %s: %w", ErrReadFailed, ErrNotText, inputPath, err)
		return result
	}

	// 3. Expand every line, keeping endings
	lines := SplitLines(decoded.Text)
	for i := range lines {
		result.TabsExpanded += strings.Count(lines[i].Content, "\t")
		lines[i].Content = ExpandLine(lines[i].Content, p.cfg)
	}
	result.Lines = len(lines)
	expanded := JoinLines(lines)
	result.Changed = expanded != decoded.Text

	decoded.Text = expanded
	output, err := p.encodingHandler.Encode(decoded)
	if err != nil {
		result.Err = fmt.Errorf("%w: %s: %w", ErrWriteFailed, result.OutputPath, err)
		return result
	}

	// 4. Ensure output directory exists
	target, err := writeTarget(result.OutputPath)
	if err != nil {
		result.Err = fmt.Errorf("%w: %s: resolve symlink: %w", ErrWriteFailed, result.OutputPath, err)
		return result
	}
	outputDir := filepath.Dir(target)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		result.Err = fmt.Errorf("%w: %w: %s: %w", ErrWriteFailed, ErrMkdirFailed, outputDir, err)
		return result
	}

	// 5. Write
	if err := writeFileAtomic(target, output, info.Mode().Perm()); err != nil {
		result.Err = fmt.Errorf("%w: %s: %w", ErrWriteFailed, result.OutputPath, err)
		return result
	}
	p.logger.Debug("Output file written successfully",
		append(logArgs, slog.Int("lines", result.Lines), slog.Int("tabsExpanded", result.TabsExpanded), slog.Bool("changed", result.Changed))...)
	return result
}

// writeTarget returns the file that a write to path must replace. An existing
// symlink is resolved, so the link survives and its target receives the
// content, as it would with a plain open-and-truncate.
func writeTarget(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return path, nil
	}
	return filepath.EvalSymlinks(path)
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// over path, so readers see either the old content or the new, never a prefix.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tempFile, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	committed := false
	defer func() {
		if !committed {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	committed = true
	return nil
}
