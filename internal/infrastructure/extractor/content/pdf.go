package content

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

// extractPDF tries the strategies in fidelity order: real PDF text objects
// first, then a printable scan of the raw bytes, then the same scan over any
// base64 regions decoded in place. The caller applies the usefulness
// threshold and the final fallback.
func extractPDF(raw []byte) (string, string) {
	if text := pdfPlainText(raw); len(text) >= minUsefulChars {
		return text, "pdf.text"
	}
	if text := printableScan(raw); len(text) >= minUsefulChars {
		return text, "pdf.printable"
	}
	if text := base64Salvage(raw); len(text) >= minUsefulChars {
		return text, "pdf.base64"
	}
	return "", "pdf.none"
}

func pdfPlainText(raw []byte) string {
	defer func() {
		// The pdf library panics on some malformed files; treat that
		// the same as any other extraction failure.
		_ = recover()
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return ""
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return ""
	}
	return buf.String()
}
