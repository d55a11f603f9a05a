package converter

import "strings"

// Line endings recognised by SplitLines.
const (
	EndingCRLF = "\r\n"
	EndingLF   = "\n"
	EndingNone = ""
)

// Line is one line of a file split from its terminator. Only Content is ever
// transformed; Ending is written back exactly as read.
type Line struct {
	Content string
	Ending  string
}

// SplitLines splits text after every "\n". A segment ending in "\r\n" gets
// EndingCRLF, otherwise EndingLF; only the final segment may have EndingNone.
// An empty text yields no lines, and text ending in a newline yields no empty
// trailing line, so JoinLines(SplitLines(s)) == s for every s.
func SplitLines(text string) []Line {
	if text == "" {
		return nil
	}
	lines := make([]Line, 0, strings.Count(text, "\n")+1)
	for text != "" {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			lines = append(lines, Line{Content: text, Ending: EndingNone})
			break
		}
		segment := text[:idx]
		ending := EndingLF
		if strings.HasSuffix(segment, "\r") {
			segment = segment[:len(segment)-1]
			ending = EndingCRLF
		}
		lines = append(lines, Line{Content: segment, Ending: ending})
		text = text[idx+1:]
	}
	return lines
}

// JoinLines concatenates each line's content followed by its ending.
func JoinLines(lines []Line) string {
	size := 0
	for _, l := range lines {
		size += len(l.Content) + len(l.Ending)
	}
	var b strings.Builder
	b.Grow(size)
	for _, l := range lines {
		b.WriteString(l.Content)
		b.WriteString(l.Ending)
	}
	return b.String()
}
