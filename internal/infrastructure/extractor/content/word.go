package content

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"
)

// extractWord handles modern .docx archives directly; legacy .doc and
// anything that fails to open as a zip gets the printable scan.
func extractWord(raw []byte, filename string) (string, string) {
	if strings.EqualFold(filepath.Ext(filename), ".docx") {
		if text := docxPlainText(raw); text != "" {
			return text, "word.docx"
		}
	}
	return printableScan(raw), "word.salvage"
}

func docxPlainText(raw []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return ""
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return ""
	}

	rc, err := docFile.Open()
	if err != nil {
		return ""
	}
	defer func() { _ = rc.Close() }()

	return stripWordXML(rc)
}

// stripWordXML collects character data and turns paragraph and line break
// elements into newlines.
func stripWordXML(r io.Reader) string {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
