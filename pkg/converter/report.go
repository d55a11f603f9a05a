package converter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Report summarizes the result of a single Convert run.
type Report struct {
	Summary        ReportSummary `json:"summary" yaml:"summary"`
	ProcessedFiles []FileInfo    `json:"processedFiles" yaml:"processedFiles"`
	SkippedFiles   []SkippedInfo `json:"skippedFiles" yaml:"skippedFiles"`
	Errors         []ErrorInfo   `json:"errors" yaml:"errors"`
}

// ReportSummary contains aggregated statistics for a Convert run.
type ReportSummary struct {
	Mode               Mode      `json:"mode" yaml:"mode"`
	InputPath          string    `json:"inputPath" yaml:"inputPath"`
	OutputPath         string    `json:"outputPath" yaml:"outputPath"`
	ConfigFilePath     string    `json:"configFilePath,omitempty" yaml:"configFilePath,omitempty"`
	TabWidth           int       `json:"tabWidth" yaml:"tabWidth"`
	SafeMode           bool      `json:"safeMode" yaml:"safeMode"`
	EraseTrailingSpace bool      `json:"eraseTrailingSpace" yaml:"eraseTrailingSpace"`
	TotalFilesScanned  int       `json:"totalFilesScanned" yaml:"totalFilesScanned"`
	ProcessedCount     int       `json:"processedCount" yaml:"processedCount"`
	ChangedCount       int       `json:"changedCount" yaml:"changedCount"`
	SkippedCount       int       `json:"skippedCount" yaml:"skippedCount"`
	ErrorCount         int       `json:"errorCount" yaml:"errorCount"`
	FatalErrorOccurred bool      `json:"fatalError" yaml:"fatalError"`
	DurationSeconds    float64   `json:"durationSeconds" yaml:"durationSeconds"`
	Concurrency        int       `json:"concurrency" yaml:"concurrency"`
	Timestamp          time.Time `json:"timestamp" yaml:"timestamp"`
	AppVersion         string    `json:"appVersion,omitempty" yaml:"appVersion,omitempty"`
	SchemaVersion      string    `json:"schemaVersion,omitempty" yaml:"schemaVersion,omitempty"`
}

// FileInfo details a single file that was successfully converted.
type FileInfo struct {
	Path         string `json:"path" yaml:"path"`
	OutputPath   string `json:"outputPath" yaml:"outputPath"`
	Lines        int    `json:"lines" yaml:"lines"`
	TabsExpanded int    `json:"tabsExpanded" yaml:"tabsExpanded"`
	Changed      bool   `json:"changed" yaml:"changed"`
	SizeBytes    int64  `json:"sizeBytes" yaml:"sizeBytes"`
	DurationMs   int64  `json:"durationMs" yaml:"durationMs"`
}

// SkippedInfo details a file that was intentionally not converted.
type SkippedInfo struct {
	Path    string `json:"path" yaml:"path"`
	Reason  string `json:"reason" yaml:"reason"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// ErrorInfo details an error encountered while converting a specific file.
type ErrorInfo struct {
	Path    string `json:"path" yaml:"path"`
	Error   string `json:"error" yaml:"error"`
	IsFatal bool   `json:"isFatal" yaml:"isFatal"`
}

// WriteReport renders report to w in the requested format.
func WriteReport(w io.Writer, report Report, format OutputFormat) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case OutputFormatText, "":
		return writeTextReport(w, report)
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrConfigValidation, format)
	}
}

// writeTextReport prints a short human-readable summary followed by failures.
func writeTextReport(w io.Writer, report Report) error {
	s := report.Summary
	if _, err := fmt.Fprintf(w, "Converted %d file(s) (%d changed), skipped %d, failed %d in %.2fs\n",
		s.ProcessedCount, s.ChangedCount, s.SkippedCount, s.ErrorCount, s.DurationSeconds); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Input:  %s\nOutput: %s\n", s.InputPath, s.OutputPath); err != nil {
		return err
	}
	for _, e := range report.Errors {
		if _, err := fmt.Fprintf(w, "  failed: %s: %s\n", e.Path, e.Error); err != nil {
			return err
		}
	}
	return nil
}
