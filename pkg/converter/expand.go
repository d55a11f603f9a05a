package converter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExpandLine replaces every tab in line with spaces up to the next tab stop.
//
// line must not contain its line ending. Columns are counted in runes, so a
// multi-byte character occupies one column. A run of n consecutive tabs at
// column col advances to n*width - col%width spaces in one step, which is the
// same position reached by expanding each tab individually since stops are
// evenly spaced. Trailing whitespace is stripped afterwards when the config
// asks for it.
func ExpandLine(line string, cfg Config) string {
	width := cfg.tabWidth
	if width < 1 {
		// NewConfig rejects this; never divide by zero on a zero Config.
		width = 1
	}

	expanded := line
	if strings.IndexByte(line, '\t') >= 0 {
		var b strings.Builder
		b.Grow(len(line) + width)
		col := 0
		for i := 0; i < len(line); {
			if line[i] == '\t' {
				run := 0
				for i < len(line) && line[i] == '\t' {
					run++
					i++
				}
				spaces := max(run*width-col%width, 0)
				b.WriteString(strings.Repeat(" ", spaces))
				col += spaces
				continue
			}
			_, size := utf8.DecodeRuneInString(line[i:])
			b.WriteString(line[i : i+size])
			col++
			i += size
		}
		expanded = b.String()
	}

	if cfg.eraseTrailingSpace {
		expanded = strings.TrimRightFunc(expanded, unicode.IsSpace)
	}
	return expanded
}

// ExpandText applies ExpandLine to the content of every line in text while
// keeping each original line ending byte for byte.
func ExpandText(text string, cfg Config) string {
	lines := SplitLines(text)
	for i := range lines {
		lines[i].Content = ExpandLine(lines[i].Content, cfg)
	}
	return JoinLines(lines)
}
