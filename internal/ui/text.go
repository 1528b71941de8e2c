package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// WrapText word-wraps text to the given display width. Words longer
// than the width are split rather than overflowing. Newlines in the
// input start new paragraphs.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var line strings.Builder
		lineW := 0
		for _, word := range words {
			wordW := runewidth.StringWidth(word)
			// Hard-split words that cannot fit on any line.
			for wordW > width {
				if lineW > 0 {
					lines = append(lines, line.String())
					line.Reset()
					lineW = 0
				}
				head := runewidth.Truncate(word, width, "")
				lines = append(lines, head)
				word = strings.TrimPrefix(word, head)
				wordW = runewidth.StringWidth(word)
			}
			if wordW == 0 {
				continue
			}
			switch {
			case lineW == 0:
				line.WriteString(word)
				lineW = wordW
			case lineW+1+wordW <= width:
				line.WriteByte(' ')
				line.WriteString(word)
				lineW += 1 + wordW
			default:
				lines = append(lines, line.String())
				line.Reset()
				line.WriteString(word)
				lineW = wordW
			}
		}
		if lineW > 0 {
			lines = append(lines, line.String())
		}
	}
	return lines
}
