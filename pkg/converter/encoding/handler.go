package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// sniffLen is the number of bytes used by http.DetectContentType
	sniffLen = 512
	// checkLen is the number of leading bytes scanned for NUL bytes.
	checkLen = 8000
	// utf8Name is the canonical IANA name of the default encoding.
	utf8Name = "utf-8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	// ErrUnknownEncoding is returned by NewHandler for names charset.Lookup does not know.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrInvalidText is returned when content is binary or cannot be decoded.
	ErrInvalidText = errors.New("invalid text content")
)

// Map of common text-based MIME type prefixes for quick lookup in IsBinary.
var knownTextMIMEPrefixes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
	"application/x-sh":       true,
	"image/svg+xml":          true,
}

// Decoded is file content converted to a Go string together with what is
// needed to write it back in the same form.
type Decoded struct {
	Text     string // Content without any byte order mark
	Encoding string // Canonical IANA name of the encoding used
	HasBOM   bool   // A UTF-8 byte order mark preceded the content
}

// EncodingHandler decodes file content into text and encodes text back into
// the same encoding. Implementations must be safe for concurrent use.
type EncodingHandler interface {
	// IsBinary reports whether content looks like binary data rather than text.
	IsBinary(content []byte) bool
	// Decode converts content to text. It fails with ErrInvalidText when the
	// content is binary or not valid in the handler's encoding.
	Decode(content []byte) (Decoded, error)
	// Encode converts decoded text back to bytes, restoring a BOM if one was read.
	Encode(d Decoded) ([]byte, error)
	// Name returns the canonical name of the handler's encoding.
	Name() string
}

// NewHandler returns the handler for the named encoding. An empty name selects UTF-8.
func NewHandler(name string) (EncodingHandler, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = utf8Name
	}
	enc, canonical := charset.Lookup(name)
	if enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	if canonical == utf8Name {
		return &utf8Handler{}, nil
	}
	return &charsetHandler{enc: enc, name: canonical}, nil
}

// --- utf8Handler ---

// utf8Handler validates content strictly instead of replacing invalid bytes.
type utf8Handler struct{}

// Name implements EncodingHandler.
func (h *utf8Handler) Name() string { return utf8Name }

// IsBinary implements EncodingHandler. Only NUL bytes count: text that
// happens to start with a magic number such as "BM" or "%PDF-" is still text,
// and Decode rejects anything else that is not valid UTF-8.
func (h *utf8Handler) IsBinary(content []byte) bool {
	return hasNUL(content)
}

// Decode implements EncodingHandler.
func (h *utf8Handler) Decode(content []byte) (Decoded, error) {
	if h.IsBinary(content) {
		return Decoded{}, fmt.Errorf("%w: binary data detected", ErrInvalidText)
	}
	hasBOM := bytes.HasPrefix(content, utf8BOM)
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return Decoded{}, fmt.Errorf("%w: not valid %s", ErrInvalidText, utf8Name)
	}
	return Decoded{Text: string(content), Encoding: utf8Name, HasBOM: hasBOM}, nil
}

// Encode implements EncodingHandler.
func (h *utf8Handler) Encode(d Decoded) ([]byte, error) {
	if !d.HasBOM {
		return []byte(d.Text), nil
	}
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewEncoder(), []byte(d.Text))
	if err != nil {
		return nil, fmt.Errorf("encode %s with BOM: %w", utf8Name, err)
	}
	return out, nil
}

// --- charsetHandler ---

// charsetHandler covers every other encoding known to golang.org/x/net/html/charset.
type charsetHandler struct {
	enc  xencoding.Encoding
	name string
}

// Name implements EncodingHandler.
func (h *charsetHandler) Name() string { return h.name }

// IsBinary implements EncodingHandler. Single-byte charsets decode any
// input, so the MIME sniff stands in for validation. NUL bytes are
// legitimate in UTF-16.
func (h *charsetHandler) IsBinary(content []byte) bool {
	if !strings.HasPrefix(h.name, "utf-16") && hasNUL(content) {
		return true
	}
	return sniffsBinary(content)
}

// Decode implements EncodingHandler.
func (h *charsetHandler) Decode(content []byte) (Decoded, error) {
	if h.IsBinary(content) {
		return Decoded{}, fmt.Errorf("%w: binary data detected", ErrInvalidText)
	}
	text, _, err := transform.Bytes(h.enc.NewDecoder(), content)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: failed to convert from %q: %w", ErrInvalidText, h.name, err)
	}
	// Decoders substitute U+FFFD for sequences they cannot map.
	if bytes.ContainsRune(text, utf8.RuneError) && !bytes.ContainsRune(content, utf8.RuneError) {
		return Decoded{}, fmt.Errorf("%w: not valid %s", ErrInvalidText, h.name)
	}
	return Decoded{Text: string(text), Encoding: h.name}, nil
}

// Encode implements EncodingHandler.
func (h *charsetHandler) Encode(d Decoded) ([]byte, error) {
	out, _, err := transform.Bytes(h.enc.NewEncoder(), []byte(d.Text))
	if err != nil {
		return nil, fmt.Errorf("failed to convert to %q: %w", h.name, err)
	}
	return out, nil
}

// --- binary detection ---

// hasNUL reports whether a NUL byte occurs near the start of content.
func hasNUL(content []byte) bool {
	return bytes.IndexByte(content[:min(len(content), checkLen)], 0x00) >= 0
}

// sniffsBinary reports whether the MIME type of the first bytes is not text.
func sniffsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	contentType := http.DetectContentType(content[:min(len(content), sniffLen)])
	return !isMIMETextBased(contentType)
}

// isMIMETextBased checks if a detected MIME type is likely text-based.
func isMIMETextBased(contentType string) bool {
	mimeType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if strings.HasPrefix(mimeType, "text/") || knownTextMIMEPrefixes[mimeType] {
		return true
	}
	if strings.HasSuffix(mimeType, "+xml") || strings.HasSuffix(mimeType, "+json") {
		return true
	}
	// Non-UTF-8 text sniffs as octet-stream; the NUL check and decoder decide.
	return mimeType == "application/octet-stream"
}
