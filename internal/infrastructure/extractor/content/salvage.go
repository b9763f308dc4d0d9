package content

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// printableScan keeps runs of printable characters from arbitrary bytes,
// dropping anything binary. Runs shorter than a few characters are noise
// from compressed streams and are skipped.
func printableScan(raw []byte) string {
	const minRun = 4

	var (
		buf strings.Builder
		run strings.Builder
	)
	flush := func() {
		if run.Len() >= minRun {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(run.String())
		}
		run.Reset()
	}

	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		i += size
		if r == utf8.RuneError && size == 1 {
			flush()
			continue
		}
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			run.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return strings.TrimSpace(buf.String())
}

var base64RunRe = regexp.MustCompile(`[A-Za-z0-9+/=]{40,}`)

// base64Salvage decodes long base64-looking runs found in the raw bytes and
// scans the decoded output for printable text. Some export tools embed the
// document body this way inside an otherwise binary wrapper.
func base64Salvage(raw []byte) string {
	var parts []string
	for _, match := range base64RunRe.FindAll(raw, 16) {
		decoded, err := base64.StdEncoding.DecodeString(string(match))
		if err != nil {
			continue
		}
		if text := printableScan(decoded); len(text) >= minUsefulChars {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
