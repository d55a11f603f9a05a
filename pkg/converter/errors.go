package converter

import "errors"

// Error categories returned by the conversion library. Callers check them
// with errors.Is; the underlying OS error is always wrapped alongside.
var (
	// ErrConfigValidation indicates that the provided Config or Options failed
	// validation (e.g. a tab width below 1). It is always reported before any
	// file is touched.
	ErrConfigValidation = errors.New("invalid configuration options provided")

	// ErrReadFailed indicates a source file could not be read or decoded.
	// In folder mode it is recorded per file and does not stop the run.
	ErrReadFailed = errors.New("failed to read file")

	// ErrNotText indicates the content is binary or not valid in the
	// configured encoding. Always returned together with ErrReadFailed.
	ErrNotText = errors.New("content is not valid text")

	// ErrMkdirFailed indicates a failure to create the output directory.
	// Always returned together with ErrWriteFailed.
	ErrMkdirFailed = errors.New("failed to create output directory")

	// ErrWriteFailed indicates the converted content could not be written to
	// its output path. An existing file at that path is left untouched.
	ErrWriteFailed = errors.New("failed to write output file")

	// ErrTraversal indicates the root directory could not be enumerated.
	// Nothing can be discovered, so it aborts the whole run.
	ErrTraversal = errors.New("failed to traverse input directory")
)
