// Package processor turns source files into documents ready for
// ingestion. The native processor handles plain text formats; binary
// formats (PDF, Office, images) need an external extraction service
// and are rejected here.
package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GQAdonis/Shannon/internal/core/domain"
)

// ProcessedDocument is the result of text extraction.
type ProcessedDocument struct {
	// Title is derived from the file name.
	Title string

	// Content is the extracted text.
	Content string

	// FileType is the detected MIME type.
	FileType string

	// FileSize is the source file size in bytes.
	FileSize int64

	// Metadata describes how the content was extracted.
	Metadata map[string]any
}

// mimeTypes maps file extensions to MIME types.
var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// textTypes are the MIME types the native processor can read directly.
var textTypes = map[string]bool{
	"text/plain":    true,
	"text/markdown": true,
	"text/html":     true,
}

// DetectMimeType returns the MIME type for a file path based on its
// extension, or application/octet-stream when unknown.
func DetectMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Native reads text formats directly from disk.
type Native struct{}

// NewNative returns the built-in processor.
func NewNative() *Native {
	return &Native{}
}

// Process extracts text from a file. Non-text MIME types return
// ErrUnsupportedType; they require an external processor.
func (p *Native) Process(path string) (*ProcessedDocument, error) {
	mimeType := DetectMimeType(path)
	if !textTypes[mimeType] {
		return nil, fmt.Errorf("%w: native processor cannot read %s files", domain.ErrUnsupportedType, mimeType)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &ProcessedDocument{
		Title:    documentTitle(path, mimeType, string(content)),
		Content:  string(content),
		FileType: mimeType,
		FileSize: info.Size(),
		Metadata: map[string]any{
			"processor": string(domain.ProcessorNative),
			"mime_type": mimeType,
		},
	}, nil
}

// documentTitle prefers the first markdown heading, falling back to
// the file name.
func documentTitle(path, mimeType, content string) string {
	if mimeType == "text/markdown" {
		for _, line := range strings.Split(content, "\n") {
			if rest, ok := strings.CutPrefix(line, "# "); ok {
				if title := strings.TrimSpace(rest); title != "" {
					return title
				}
			}
		}
	}
	return filepath.Base(path)
}

// ToDocument converts an extraction result into a document for a
// knowledge base.
func (d *ProcessedDocument) ToDocument(userID, knowledgeBaseID string) *domain.Document {
	return &domain.Document{
		UserID:          userID,
		KnowledgeBaseID: knowledgeBaseID,
		Title:           d.Title,
		Content:         d.Content,
		FileType:        d.FileType,
		FileSize:        d.FileSize,
		Processor:       domain.ProcessorNative,
		Metadata:        d.Metadata,
	}
}
