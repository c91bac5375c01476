package export

import (
	"fmt"
	"os"
	"path/filepath"

	"report-service/internal/pdf"
)

// FileSink saves finished documents into a local directory
type FileSink struct {
	dir string
}

// NewFileSink creates a file sink rooted at dir
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Save writes the document under its generated filename and returns the
// full path
func (s *FileSink) Save(doc *pdf.Document) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(s.dir, doc.Filename)
	if err := os.WriteFile(path, doc.Bytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return path, nil
}
