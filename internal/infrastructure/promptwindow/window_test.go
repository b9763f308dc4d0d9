package promptwindow

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClipShortTextUnchanged(t *testing.T) {
	w := New(100)
	text := "short document text"
	if got := w.Clip(text); got != text {
		t.Errorf("Clip = %q, want unchanged", got)
	}
}

func TestClipLongTextEndsOnWordBoundary(t *testing.T) {
	w := New(50)
	text := strings.Repeat("wheat barley rye oats ", 20)

	got := w.Clip(text)
	if !strings.HasSuffix(got, "\n…(truncated)") {
		t.Fatalf("missing truncation marker: %q", got)
	}
	body := strings.TrimSuffix(got, "\n…(truncated)")
	if utf8.RuneCountInString(body) > 50 {
		t.Errorf("body is %d runes, budget 50", utf8.RuneCountInString(body))
	}
	// The cut lands on whitespace, so the last token is a whole word.
	last := body[strings.LastIndexByte(body, ' ')+1:]
	switch last {
	case "wheat", "barley", "rye", "oats":
	default:
		t.Errorf("last token %q is a cut word", last)
	}
}

func TestClipRespectsRuneBoundary(t *testing.T) {
	w := New(10)
	text := strings.Repeat("ячмень ", 10)

	got := w.Clip(text)
	if !utf8.ValidString(got) {
		t.Errorf("clip broke a multibyte rune: %q", got)
	}
}

func TestClipWithoutWhitespaceCutsAtBudget(t *testing.T) {
	w := New(10)
	text := strings.Repeat("a", 100)

	got := w.Clip(text)
	body := strings.TrimSuffix(got, "\n…(truncated)")
	if len(body) != 10 {
		t.Errorf("body = %q, want exactly the 10-rune budget", body)
	}
}

func TestNewDefaultsBudget(t *testing.T) {
	if w := New(0); w.MaxRunes != 12000 {
		t.Errorf("MaxRunes = %d", w.MaxRunes)
	}
	if w := New(-5); w.MaxRunes != 12000 {
		t.Errorf("MaxRunes = %d", w.MaxRunes)
	}
}
