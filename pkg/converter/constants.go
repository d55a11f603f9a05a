package converter

// Constants defining default values for configuration options.
// These are used when setting up Viper defaults in the configuration loading process.
const (
	// DefaultTabWidth is the number of columns between two tab stops.
	DefaultTabWidth = 4
	// DefaultSafeMode keeps originals untouched unless --overwrite is given.
	DefaultSafeMode = true
	// DefaultEraseTrailingSpace is the default state for trailing whitespace trimming.
	DefaultEraseTrailingSpace = false
	// DefaultConcurrency processes files one at a time. 0 means runtime.NumCPU().
	DefaultConcurrency = 1
	// DefaultEncoding is the encoding used to decode and re-encode file content.
	DefaultEncoding = "utf-8"
	// DefaultOutputFormat is the default format for the final summary report.
	DefaultOutputFormat = OutputFormatText
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
	// DefaultProgress enables the progress bar when stderr is a terminal.
	DefaultProgress = true
)

// DefaultCodeExtensions lists the extensions converted in folder mode when none are configured.
var DefaultCodeExtensions = []string{"c", "cc", "h", "py", "cs"}

// Constants related to output path derivation in safe mode.
const (
	// SafeFileExtension replaces the extension of a converted file in safe mode.
	SafeFileExtension = ".notab"
	// SafeDirSuffix is appended to the root directory name in safe folder mode.
	SafeDirSuffix = "_notab"
)

// IgnoreFileName is read from the root of a converted tree for extra ignore patterns.
const IgnoreFileName = ".tab2spaceignore"

// ReportSchemaVersion indicates the version of the JSON/YAML report structure.
const ReportSchemaVersion = "1.0"

// Constants defining skip reasons used in the Report.
const (
	SkipReasonExtension = "extension_not_eligible"
	SkipReasonIgnored   = "ignored_pattern"
	SkipReasonSymlink   = "symbolic_link"
)
