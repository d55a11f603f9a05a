package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stackvity/tab2space/pkg/converter"
	"github.com/stackvity/tab2space/pkg/converter/encoding"
)

const (
	EnvPrefix         = "TAB2SPACE"
	DefaultConfigName = "tab2space"
)

// Settings is the merged view of defaults, config file, environment and
// flags, before it is validated into converter.Options.
type Settings struct {
	TabWidth          int      `mapstructure:"tabWidth"`
	Overwrite         bool     `mapstructure:"overwrite"`
	TrimTrailingSpace bool     `mapstructure:"trimTrailingSpace"`
	IsFolder          bool     `mapstructure:"isFolder"`
	Extensions        []string `mapstructure:"extensions"`
	Out               string   `mapstructure:"out"`
	Ignore            []string `mapstructure:"ignore"`
	Encoding          string   `mapstructure:"encoding"`
	Concurrency       int      `mapstructure:"concurrency"`
	OutputFormat      string   `mapstructure:"outputFormat"`
	Verbose           bool     `mapstructure:"verbose"`
	Progress          bool     `mapstructure:"progress"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"tab_width":     "tabWidth",
	"overwrite":     "overwrite",
	"rtw":           "trimTrailingSpace",
	"is_folder":     "isFolder",
	"ext":           "extensions",
	"out":           "out",
	"ignore":        "ignore",
	"encoding":      "encoding",
	"concurrency":   "concurrency",
	"output-format": "outputFormat",
	"verbose":       "verbose",
}

// LoadAndValidate loads configuration from all sources (defaults, file, env,
// flags), validates the merged result and builds the library Options for
// targetPath. Log records are written to logOut, or to stderr when it is nil.
func LoadAndValidate(cfgFile, targetPath, appVersion string, verbose bool, flags *pflag.FlagSet, logOut io.Writer) (converter.Options, *slog.Logger, error) {
	var opts converter.Options
	if logOut == nil {
		logOut = os.Stderr
	}
	v := viper.New()

	// Basic logger for errors raised before the log level is known.
	tempLogger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	// --- Load Config File ---
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		} else {
			tempLogger.Debug("User home directory unavailable, skipping its config path", slog.Any("error", err))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			configFileUsed := cfgFile
			if configFileUsed == "" {
				configFileUsed = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			tempLogger.Error("Error reading configuration file", slog.String("path", configFileUsed), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("%w: error reading config file '%s': %w", converter.ErrConfigValidation, configFileUsed, err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
		tempLogger.Debug("Using configuration file", slog.String("path", opts.ConfigFilePath))
	}

	// --- Bind Environment Variables ---
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Bind Flags (Highest Priority) ---
	for flagName, key := range flagKeys {
		flag := flags.Lookup(flagName)
		if flag == nil {
			tempLogger.Debug("Flag lookup failed during binding", slog.String("flag", flagName))
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			tempLogger.Error("Error binding flag", slog.String("flag", flagName), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error binding flag '--%s': %w", flagName, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		tempLogger.Error("Error unmarshalling configuration", slog.Any("error", err))
		return opts, tempLogger, fmt.Errorf("%w: error unmarshalling configuration: %w", converter.ErrConfigValidation, err)
	}

	// --- Explicitly Handle Flag Overrides for Booleans ---
	// Explicit flags always win over file and env values.
	if flags.Changed("verbose") {
		settings.Verbose, _ = flags.GetBool("verbose")
	} else if verbose {
		settings.Verbose = true
	}
	if flags.Changed("overwrite") {
		settings.Overwrite, _ = flags.GetBool("overwrite")
	}
	if flags.Changed("rtw") {
		settings.TrimTrailingSpace, _ = flags.GetBool("rtw")
	}
	if flags.Changed("is_folder") {
		settings.IsFolder, _ = flags.GetBool("is_folder")
	}
	if flags.Changed("no-progress") {
		if noProgress, _ := flags.GetBool("no-progress"); noProgress {
			settings.Progress = false
		}
	}

	// --- Setup Final Logger ---
	logLevel := slog.LevelInfo
	if settings.Verbose {
		logLevel = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logHandler)
	opts.Logger = logHandler
	opts.AppVersion = appVersion

	if err := validateAndDeriveOptions(&opts, settings, targetPath, logger); err != nil {
		return opts, logger, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", opts.ConfigFilePath),
		slog.String("mode", string(opts.Mode)),
		slog.Int("tabWidth", opts.Config.TabWidth()),
		slog.Bool("safeMode", opts.Config.SafeMode()),
		slog.Bool("verbose", opts.Verbose),
		slog.String("logLevel", logLevel.String()),
	)
	return opts, logger, nil
}

// setDefaults establishes the default values for configuration options in Viper.
func setDefaults(v *viper.Viper) {
	// --- Conversion ---
	v.SetDefault("tabWidth", converter.DefaultTabWidth)
	v.SetDefault("overwrite", !converter.DefaultSafeMode)
	v.SetDefault("trimTrailingSpace", converter.DefaultEraseTrailingSpace)
	v.SetDefault("extensions", []string{})

	// --- Target ---
	v.SetDefault("isFolder", false)
	v.SetDefault("out", "")

	// --- File Handling ---
	v.SetDefault("ignore", []string{})
	v.SetDefault("encoding", converter.DefaultEncoding)

	// --- Behavior & Output ---
	v.SetDefault("concurrency", converter.DefaultConcurrency)
	v.SetDefault("outputFormat", string(converter.DefaultOutputFormat))
	v.SetDefault("verbose", converter.DefaultVerbose)
	v.SetDefault("progress", converter.DefaultProgress)
}

// isValidEnumValue checks if a given string value is present in a slice of allowed enum values.
// Case-sensitive comparison.
func isValidEnumValue[T ~string](value T, allowedValues []T) bool {
	return slices.Contains(allowedValues, value)
}

// validateAndDeriveOptions performs semantic validation on the merged settings
// and fills opts. It wraps errors with converter.ErrConfigValidation.
func validateAndDeriveOptions(opts *converter.Options, s Settings, targetPath string, logger *slog.Logger) error {
	// === Target ===
	if strings.TrimSpace(targetPath) == "" {
		err := fmt.Errorf("%w: target path is required", converter.ErrConfigValidation)
		logger.Error(err.Error(), slog.String("key", "path"))
		return err
	}
	opts.TargetPath = targetPath
	opts.Mode = converter.ModeFile
	if s.IsFolder {
		opts.Mode = converter.ModeFolder
	}
	opts.OutputOverride = s.Out

	// === Conversion Config ===
	cfg, err := converter.NewConfig(s.TabWidth, !s.Overwrite, s.TrimTrailingSpace, splitList(s.Extensions))
	if err != nil {
		logger.Error(err.Error(), slog.String("key", "tabWidth"), slog.Int("value", s.TabWidth), slog.Any("extensions", s.Extensions))
		return err
	}
	opts.Config = cfg

	// === Enum String Validations ===
	allowedOutputFormat := []converter.OutputFormat{converter.OutputFormatText, converter.OutputFormatJSON, converter.OutputFormatYAML}
	format := converter.OutputFormat(strings.ToLower(s.OutputFormat))
	if !isValidEnumValue(format, allowedOutputFormat) {
		err := fmt.Errorf("%w: invalid value '%s' for key 'outputFormat' (flag --output-format). Allowed: %v", converter.ErrConfigValidation, s.OutputFormat, allowedOutputFormat)
		logger.Error(err.Error(), slog.String("key", "outputFormat"), slog.String("value", s.OutputFormat))
		return err
	}
	opts.OutputFormat = format

	// === Numeric Range Validations ===
	if s.Concurrency < 0 {
		err := fmt.Errorf("%w: invalid value '%d' for key 'concurrency' (flag --concurrency). Must be >= 0", converter.ErrConfigValidation, s.Concurrency)
		logger.Error(err.Error(), slog.String("key", "concurrency"), slog.Int("value", s.Concurrency))
		return err
	}
	opts.Concurrency = s.Concurrency

	// === Encoding ===
	handler, err := encoding.NewHandler(s.Encoding)
	if err != nil {
		err = fmt.Errorf("%w: invalid value '%s' for key 'encoding' (flag --encoding): %w", converter.ErrConfigValidation, s.Encoding, err)
		logger.Error(err.Error(), slog.String("key", "encoding"), slog.String("value", s.Encoding))
		return err
	}
	opts.Encoding = handler.Name()
	opts.EncodingHandler = handler

	opts.IgnorePatterns = slices.DeleteFunc(slices.Clone(s.Ignore), func(p string) bool {
		return strings.TrimSpace(p) == ""
	})
	opts.Verbose = s.Verbose
	// Debug records and a redrawn bar would interleave on stderr.
	opts.Progress = s.Progress && !s.Verbose

	logger.Debug("Final derived settings validated",
		slog.Int("concurrency", opts.Concurrency),
		slog.String("encoding", opts.Encoding),
		slog.Any("extensions", opts.Config.CodeExtensions()),
		slog.Int("ignorePatterns", len(opts.IgnorePatterns)),
		slog.Bool("progressEffective", opts.Progress),
	)
	return nil
}

// splitList flattens comma separated extension lists and drops empty
// entries, so "py,c" and "--ext py --ext c" end up the same.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
