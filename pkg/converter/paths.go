package converter

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolveOutputPath returns where the converted content of inputPath is written.
// An explicit override always wins. In safe mode the last extension is replaced
// by SafeFileExtension ("a.py" -> "a.notab"); names without a usable extension,
// such as "Makefile" or ".bashrc", get it appended. Otherwise the input itself
// is overwritten.
func ResolveOutputPath(inputPath, override string, cfg Config) string {
	if override != "" {
		return override
	}
	if !cfg.safeMode {
		return inputPath
	}
	return safeSiblingPath(inputPath)
}

// safeSiblingPath never returns inputPath itself, even for "x.notab" inputs.
func safeSiblingPath(inputPath string) string {
	dir, base := filepath.Split(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" || stem == "" || ext == SafeFileExtension {
		return inputPath + SafeFileExtension
	}
	return filepath.Join(dir, stem+SafeFileExtension)
}

// OutputRoot returns the directory that mirrors root in folder mode: the
// override if given, the sibling "<root>_notab" in safe mode, or root itself
// for in-place conversion. root is made absolute first so "." and trailing
// separators name the real directory.
func OutputRoot(root, override string, cfg Config) (string, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("%w: cannot resolve output root %q: %w", ErrConfigValidation, override, err)
		}
		return abs, nil
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve absolute path for %q: %w", ErrTraversal, root, err)
	}
	if !cfg.safeMode {
		return absRoot, nil
	}
	if filepath.Dir(absRoot) == absRoot {
		return "", fmt.Errorf("%w: safe mode cannot derive a sibling directory for filesystem root %q", ErrConfigValidation, absRoot)
	}
	return absRoot + SafeDirSuffix, nil
}

// rerootPath maps path under inputRoot to the same relative location under outputRoot.
func rerootPath(inputRoot, outputRoot, path string) (string, error) {
	rel, err := filepath.Rel(inputRoot, path)
	if err != nil {
		return "", fmt.Errorf("cannot compute path of %q relative to %q: %w", path, inputRoot, err)
	}
	return filepath.Join(outputRoot, rel), nil
}
