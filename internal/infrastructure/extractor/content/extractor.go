// Package content extracts prompt-ready text from uploaded documents.
//
// Extraction is deliberately infallible: every strategy ends in a
// deterministic fallback prompt so the pipeline always has something to send
// to the model, even for corrupt or unreadable files. The second return
// value names the method that produced the text, for logging and for the
// record of how trustworthy the extraction is.
package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
	"github.com/cropguide/cropguide-ingest/internal/core/ports"
)

// minUsefulChars is the threshold below which extracted text is considered
// noise and the next strategy is tried.
const minUsefulChars = 50

type Extractor struct {
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewExtractor(storage ports.ObjectStorage, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{storage: storage, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, string) {
	raw, err := e.readObject(ctx, doc.StoragePath)
	if err != nil {
		e.logger.Warn("extract.read_failed", "document_id", doc.ID, "error", err)
		return fallbackPrompt(doc), "fallback.unreadable"
	}

	text, method := e.extractByType(doc, raw)
	if len(strings.TrimSpace(text)) < minUsefulChars {
		e.logger.Warn("extract.below_threshold",
			"document_id", doc.ID, "method", method, "chars", len(strings.TrimSpace(text)))
		return fallbackPrompt(doc), "fallback." + string(doc.Type)
	}

	e.logger.Debug("extract.done", "document_id", doc.ID, "method", method, "chars", len(text))
	return text, method
}

func (e *Extractor) extractByType(doc *domain.Document, raw []byte) (string, string) {
	switch doc.Type {
	case domain.TypeCSV:
		return extractCSV(raw)
	case domain.TypeExcel:
		return extractExcel(raw)
	case domain.TypeWord:
		return extractWord(raw, doc.Filename)
	case domain.TypeImage:
		return describeImage(doc), "image.metadata"
	default:
		// Unknown extensions routed here by type detection get the
		// PDF strategy chain, which ends in printable salvage anyway.
		return extractPDF(raw)
	}
}

func (e *Extractor) readObject(ctx context.Context, key string) ([]byte, error) {
	reader, err := e.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer func() { _ = reader.Close() }()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}
	return raw, nil
}

// fallbackPrompt is the text of last resort: it asks the model to reason
// from the filename alone. It depends only on document metadata, so repeated
// runs over the same document produce the same prompt.
func fallbackPrompt(doc *domain.Document) string {
	base := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
	return fmt.Sprintf(
		"The document %q (%s, %d bytes) could not be read as text. "+
			"Based on the filename %q, list any crops it likely describes, "+
			"with low confidence scores and a note that the content was unreadable.",
		doc.Filename, doc.Type, doc.SizeBytes, base)
}

func describeImage(doc *domain.Document) string {
	return fmt.Sprintf(
		"The document %q is an image file of %d bytes. Image content analysis is not available. "+
			"Based on the filename, list any crops it likely depicts, with low confidence scores "+
			"and a note that only the filename was available.",
		doc.Filename, doc.SizeBytes)
}
