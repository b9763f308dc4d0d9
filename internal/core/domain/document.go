package domain

import "time"

type DocumentStatus string

const (
	StatusUploading      DocumentStatus = "uploading"
	StatusProcessing     DocumentStatus = "processing"
	StatusCompleted      DocumentStatus = "completed"
	StatusCompletedEmpty DocumentStatus = "completed_empty"
	StatusFailed         DocumentStatus = "failed"
)

// IsTerminal reports whether a document can no longer change status
// within the current processing attempt.
func (s DocumentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedEmpty, StatusFailed:
		return true
	default:
		return false
	}
}

type DocumentType string

const (
	TypePDF   DocumentType = "pdf"
	TypeCSV   DocumentType = "csv"
	TypeExcel DocumentType = "excel"
	TypeWord  DocumentType = "word"
	TypeImage DocumentType = "image"
)

// DetectDocumentType maps a lowercase file extension (without the dot) to a
// document type. Unknown extensions return ok=false; callers decide whether
// to reject or route through the PDF strategy.
func DetectDocumentType(ext string) (DocumentType, bool) {
	switch ext {
	case "pdf":
		return TypePDF, true
	case "csv":
		return TypeCSV, true
	case "xlsx", "xls":
		return TypeExcel, true
	case "docx", "doc":
		return TypeWord, true
	case "jpg", "jpeg", "png", "gif":
		return TypeImage, true
	default:
		return TypePDF, false
	}
}

// Document is one user-submitted file moving through the extraction pipeline.
// Status only moves forward within a processing attempt; progress is a coarse
// checkpoint percentage, not a continuous gauge.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	Type        DocumentType   `json:"type"`
	SizeBytes   int64          `json:"size_bytes"`
	StoragePath string         `json:"storage_path"`
	Status      DocumentStatus `json:"status"`
	Progress    int            `json:"progress"`
	Error       string         `json:"error,omitempty"`
	Records     []CropRecord   `json:"records,omitempty"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
