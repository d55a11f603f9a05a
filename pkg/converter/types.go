package converter

// Status defines the possible processing states of a file during conversion.
type Status string

// Constants representing the defined file processing statuses.
const (
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Mode selects between converting one file and converting a directory tree.
type Mode string

const (
	ModeFile   Mode = "file"
	ModeFolder Mode = "folder"
)

// OutputFormat defines the format for the final summary report.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)
