package converter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// WalkResult lists what a Walker found beneath its root.
type WalkResult struct {
	// Root is the directory actually traversed: the absolute input root with
	// any symbolic link in the root path itself resolved.
	Root string
	// Files holds eligible files relative to Root, in lexical walk order.
	Files []string
	// Skipped holds regular files and links that were not selected.
	Skipped []SkippedInfo
}

// Walker is responsible for traversing the input directory, applying ignore
// rules and the extension filter, and collecting eligible file paths.
//
// Symbolic links found beneath the root are never followed, whether they
// point at files or directories; they are reported as skipped. A link given
// as the root itself is resolved, since the user named it explicitly.
type Walker struct {
	root          string
	excludeDir    string
	cfg           Config
	hooks         Hooks
	logger        *slog.Logger
	ignoreMatcher *ignoreMatcher
}

// NewWalker creates a Walker for root. excludeDir, when non-empty, names a
// directory under root that must not be descended into (the output tree).
func NewWalker(opts *Options, root, excludeDir string, loggerHandler slog.Handler) (*Walker, error) {
	logger := slog.New(loggerHandler).With(slog.String("component", "walker"))

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve absolute path for %q: %w", ErrTraversal, root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot access root directory %q: %w", ErrTraversal, absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: root path %q is not a directory", ErrTraversal, absRoot)
	}
	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve root directory %q: %w", ErrTraversal, absRoot, err)
	}

	matcher, err := newIgnoreMatcher(resolvedRoot, opts.IgnorePatterns, logger)
	if err != nil {
		logger.Error("Failed to initialize ignore pattern matcher", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to initialize ignore patterns: %w", err)
	}
	logger.Debug("Ignore patterns loaded", slog.Int("count", matcher.patternCount()))

	if excludeDir != "" {
		if rel, relErr := filepath.Rel(absRoot, excludeDir); relErr == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			excludeDir = filepath.Join(resolvedRoot, rel)
		} else {
			excludeDir = ""
		}
	}

	hooks := opts.EventHooks
	if hooks == nil {
		hooks = &NoOpHooks{}
	}
	return &Walker{
		root:          resolvedRoot,
		excludeDir:    excludeDir,
		cfg:           opts.Config,
		hooks:         hooks,
		logger:        logger,
		ignoreMatcher: matcher,
	}, nil
}

// Collect walks the whole tree depth first and returns the eligible files.
// Only a failure to read the root itself is fatal; unreadable entries below
// it are logged and skipped.
func (w *Walker) Collect(ctx context.Context) (WalkResult, error) {
	w.logger.Info("Starting directory walk", slog.String("path", w.root))
	result := WalkResult{Root: w.root}
	walkErr := filepath.WalkDir(w.root, w.walkFunc(ctx, &result))
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			w.logger.Info("Directory walk cancelled", slog.String("reason", walkErr.Error()))
			return result, walkErr
		}
		w.logger.Error("Directory walk failed", slog.String("error", walkErr.Error()))
		return result, walkErr
	}
	w.logger.Info("Directory walk completed",
		slog.Int("eligible", len(result.Files)),
		slog.Int("skipped", len(result.Skipped)))
	return result, nil
}

// walkFunc returns the WalkDirFunc used by filepath.WalkDir.
func (w *Walker) walkFunc(ctx context.Context, result *WalkResult) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.root {
				return fmt.Errorf("%w: cannot read root directory %q: %w", ErrTraversal, path, err)
			}
			w.logger.Warn("Error accessing path during walk", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == w.root {
			return nil
		}
		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			w.logger.Warn("Could not calculate relative path", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		slashPath := filepath.ToSlash(relPath)

		if d.Type()&fs.ModeSymlink != 0 {
			w.logger.Debug("Skipping symbolic link", slog.String("path", slashPath))
			w.skip(result, slashPath, SkipReasonSymlink, "symbolic links are not followed")
			return nil
		}

		isDir := d.IsDir()
		if isDir && w.excludeDir != "" && path == w.excludeDir {
			w.logger.Debug("Skipping output directory inside input tree", slog.String("path", slashPath))
			return filepath.SkipDir
		}
		if ignored, pattern := w.ignoreMatcher.Match(slashPath, isDir); ignored {
			w.logger.Debug("Path ignored", slog.String("path", slashPath), slog.Bool("isDir", isDir), slog.String("pattern", pattern))
			if isDir {
				return filepath.SkipDir
			}
			w.skip(result, slashPath, SkipReasonIgnored, "matched pattern: "+pattern)
			return nil
		}
		if isDir || !d.Type().IsRegular() {
			return nil
		}

		if !w.eligible(d.Name()) {
			w.logger.Debug("Extension not eligible", slog.String("path", slashPath))
			result.Skipped = append(result.Skipped, SkippedInfo{Path: slashPath, Reason: SkipReasonExtension})
			return nil
		}

		if hookErr := w.hooks.OnFileDiscovered(slashPath); hookErr != nil {
			w.logger.Warn("Event hook OnFileDiscovered failed", slog.String("path", slashPath), slog.String("error", hookErr.Error()))
		}
		result.Files = append(result.Files, relPath)
		return nil
	}
}

// eligible reports whether a file name's extension is a configured code extension.
func (w *Walker) eligible(name string) bool {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		// No extension, or a dotfile such as ".bashrc".
		return false
	}
	return w.cfg.HasExtension(ext[1:])
}

// skip records a skipped path and notifies the hooks.
func (w *Walker) skip(result *WalkResult, slashPath, reason, details string) {
	result.Skipped = append(result.Skipped, SkippedInfo{Path: slashPath, Reason: reason, Details: details})
	if hookErr := w.hooks.OnFileStatusUpdate(slashPath, StatusSkipped, details, 0); hookErr != nil {
		w.logger.Warn("Event hook OnFileStatusUpdate (Skipped) failed", slog.String("path", slashPath), slog.String("error", hookErr.Error()))
	}
}
