package promptwindow

import "strings"

// Window caps document text to a prompt character budget. Long extractions
// are clipped on a rune boundary, preferring the last whitespace inside the
// budget so the model never receives a word cut in half.
type Window struct {
	MaxRunes int
}

func New(maxRunes int) *Window {
	if maxRunes <= 0 {
		maxRunes = 12000
	}
	return &Window{MaxRunes: maxRunes}
}

func (w *Window) Clip(text string) string {
	runes := []rune(text)
	if len(runes) <= w.MaxRunes {
		return text
	}

	clipped := runes[:w.MaxRunes]
	if idx := lastSpace(clipped); idx > w.MaxRunes/2 {
		clipped = clipped[:idx]
	}
	return strings.TrimSpace(string(clipped)) + "\n…(truncated)"
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		switch runes[i] {
		case ' ', '\n', '\t':
			return i
		}
	}
	return -1
}
