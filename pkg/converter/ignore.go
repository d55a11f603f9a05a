package converter

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// --- ignoreMatcher ---

type ignoreMatcher struct {
	patterns []ignorePattern
	logger   *slog.Logger
}

type ignorePattern struct {
	pattern     string // doublestar pattern matched against slash-separated relative paths
	origPattern string // Original pattern string for reporting
	negated     bool
	isDirOnly   bool
}

// newIgnoreMatcher loads patterns from the root's ignore file followed by
// patterns from config/flags, so later config patterns win.
func newIgnoreMatcher(rootPath string, configPatterns []string, logger *slog.Logger) (*ignoreMatcher, error) {
	matcher := &ignoreMatcher{logger: logger.With(slog.String("component", "ignoreMatcher"))}

	ignoreFilePath := filepath.Join(rootPath, IgnoreFileName)
	filePatterns, err := loadPatternsFromFile(ignoreFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		matcher.logger.Debug("No ignore file found", slog.String("path", ignoreFilePath))
	case err != nil:
		return nil, err
	default:
		if err := matcher.addPatterns(filePatterns); err != nil {
			return nil, fmt.Errorf("ignore file %s: %w", ignoreFilePath, err)
		}
		matcher.logger.Debug("Loaded patterns from ignore file", slog.String("path", ignoreFilePath), slog.Int("count", len(filePatterns)))
	}

	if err := matcher.addPatterns(configPatterns); err != nil {
		return nil, err
	}
	return matcher, nil
}

// loadPatternsFromFile reads an ignore file and returns its non-comment lines.
func loadPatternsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open ignore file %s: %w", filePath, err)
	}
	defer file.Close()
	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", filePath, err)
	}
	return patterns, nil
}

// compileIgnorePattern turns a gitignore-style line into a doublestar pattern.
// A pattern without a slash (other than a trailing one) matches at any depth.
func compileIgnorePattern(raw string) (ignorePattern, bool) {
	p := ignorePattern{origPattern: raw}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "!") {
		p.negated = true
		trimmed = trimmed[1:]
	}
	if strings.HasSuffix(trimmed, "/") {
		p.isDirOnly = true
		trimmed = strings.TrimSuffix(trimmed, "/")
	}
	trimmed = filepath.ToSlash(trimmed)
	rooted := strings.HasPrefix(trimmed, "/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return p, false
	}
	if !rooted && !strings.Contains(trimmed, "/") {
		trimmed = "**/" + trimmed
	}
	p.pattern = trimmed
	return p, doublestar.ValidatePattern(p.pattern)
}

// validIgnorePattern reports whether raw compiles to a usable pattern.
func validIgnorePattern(raw string) bool {
	_, ok := compileIgnorePattern(raw)
	return ok
}

// addPatterns compiles raw patterns, rejecting the first invalid one.
func (m *ignoreMatcher) addPatterns(rawPatterns []string) error {
	for _, raw := range rawPatterns {
		p, ok := compileIgnorePattern(raw)
		if !ok {
			return fmt.Errorf("%w: invalid ignore pattern %q", ErrConfigValidation, raw)
		}
		m.patterns = append(m.patterns, p)
	}
	return nil
}

// Match reports whether relativePath (slash-separated) is ignored, and the
// original pattern that decided it.
func (m *ignoreMatcher) Match(relativePath string, isDir bool) (bool, string) {
	ignored := false
	decidedBy := ""
	for _, p := range m.patterns {
		if p.isDirOnly && !isDir {
			continue
		}
		if ok, _ := doublestar.Match(p.pattern, relativePath); ok {
			ignored = !p.negated
			decidedBy = p.origPattern
		}
	}
	if !ignored {
		return false, ""
	}
	return true, decidedBy
}

// patternCount returns the number of processed patterns.
func (m *ignoreMatcher) patternCount() int {
	return len(m.patterns)
}
