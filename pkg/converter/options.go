package converter

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/stackvity/tab2space/pkg/converter/encoding"
)

// Config is the conversion configuration shared by every operation of a run.
// It is built once by NewConfig and is read-only afterwards; the zero value
// is not valid.
type Config struct {
	tabWidth           int
	safeMode           bool
	eraseTrailingSpace bool
	extensions         []string
	extensionSet       map[string]struct{}
}

// NewConfig validates its arguments and returns an immutable Config.
// Extensions are names without the leading dot and are matched case-sensitively.
// A nil or empty extension list selects DefaultCodeExtensions.
func NewConfig(tabWidth int, safeMode, eraseTrailingSpace bool, codeExtensions []string) (Config, error) {
	if tabWidth < 1 {
		return Config{}, fmt.Errorf("%w: tab width must be a positive integer, got %d", ErrConfigValidation, tabWidth)
	}
	if len(codeExtensions) == 0 {
		codeExtensions = DefaultCodeExtensions
	}
	set := make(map[string]struct{}, len(codeExtensions))
	list := make([]string, 0, len(codeExtensions))
	for _, ext := range codeExtensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return Config{}, fmt.Errorf("%w: code extension cannot be empty", ErrConfigValidation)
		}
		if strings.ContainsAny(ext, `./\`) {
			return Config{}, fmt.Errorf("%w: code extension %q must be a bare name without dots or separators", ErrConfigValidation, ext)
		}
		if _, dup := set[ext]; dup {
			continue
		}
		set[ext] = struct{}{}
		list = append(list, ext)
	}
	return Config{
		tabWidth:           tabWidth,
		safeMode:           safeMode,
		eraseTrailingSpace: eraseTrailingSpace,
		extensions:         list,
		extensionSet:       set,
	}, nil
}

// TabWidth returns the number of columns between tab stops.
func (c Config) TabWidth() int { return c.tabWidth }

// SafeMode reports whether originals are preserved by writing to a derived path.
func (c Config) SafeMode() bool { return c.safeMode }

// EraseTrailingSpace reports whether trailing whitespace is stripped from each line.
func (c Config) EraseTrailingSpace() bool { return c.eraseTrailingSpace }

// CodeExtensions returns a copy of the eligible extensions in configuration order.
func (c Config) CodeExtensions() []string { return slices.Clone(c.extensions) }

// HasExtension reports whether ext (without the dot) is eligible for folder conversion.
func (c Config) HasExtension(ext string) bool {
	_, ok := c.extensionSet[ext]
	return ok
}

// Hooks defines callbacks for status updates during the conversion process.
// Implementations MUST be thread-safe as methods may be called concurrently.
type Hooks interface {
	OnFileDiscovered(path string) error
	OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error
	OnRunComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of the Hooks interface.
type NoOpHooks struct{}

// OnFileDiscovered implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileDiscovered(path string) error { return nil }

// OnFileStatusUpdate implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error {
	return nil
}

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(report Report) error { return nil }

// Options holds all configuration for a Convert run.
type Options struct {
	// --- Conversion ---
	Config Config // Required: built with NewConfig

	// --- Target ---
	TargetPath     string // Required: file or directory to convert
	Mode           Mode   // ModeFile or ModeFolder
	OutputOverride string // Optional: explicit output file (file mode) or output root (folder mode)

	// --- File Handling & Filtering ---
	IgnorePatterns []string // doublestar globs relative to the root (folder mode)
	Encoding       string   // IANA encoding name used to decode and re-encode content

	// --- Behavior & Control ---
	Concurrency    int          // Number of workers in folder mode (0=auto, 1=sequential)
	OutputFormat   OutputFormat // ("text", "json", "yaml") for the folder-mode report
	Verbose        bool         // Enable debug logging
	Progress       bool         // Hint for the CLI to show a progress bar
	ConfigFilePath string       // Path to the loaded config file (for reporting)
	AppVersion     string       // Application version, reported in the summary

	// --- Injected Dependencies ---
	EventHooks      Hooks                    // Optional: defaults to NoOpHooks
	Logger          slog.Handler             // Required: logging backend
	EncodingHandler encoding.EncodingHandler // Optional: defaults to a handler for Encoding
}

// validate checks the fields every entry point relies on.
func (o *Options) validate() error {
	if o.Logger == nil {
		return fmt.Errorf("%w: Logger implementation cannot be nil", ErrConfigValidation)
	}
	if o.Config.tabWidth < 1 {
		return fmt.Errorf("%w: Config must be built with NewConfig", ErrConfigValidation)
	}
	if o.TargetPath == "" {
		return fmt.Errorf("%w: target path cannot be empty", ErrConfigValidation)
	}
	if o.Mode != ModeFile && o.Mode != ModeFolder {
		return fmt.Errorf("%w: unknown mode %q", ErrConfigValidation, o.Mode)
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency cannot be negative", ErrConfigValidation)
	}
	for _, p := range o.IgnorePatterns {
		if !validIgnorePattern(p) {
			return fmt.Errorf("%w: invalid ignore pattern %q", ErrConfigValidation, p)
		}
	}
	if o.EventHooks == nil {
		o.EventHooks = &NoOpHooks{}
	}
	if o.EncodingHandler == nil {
		handler, err := encoding.NewHandler(o.Encoding)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConfigValidation, err)
		}
		o.EncodingHandler = handler
	}
	return nil
}
