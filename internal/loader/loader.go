// Package loader extracts plain text from uploaded CV documents.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cvlens/internal/errors"
	"cvlens/internal/types"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
)

// Loader extracts plain text from a document file of one format
type Loader interface {
	Load(path string) (string, error)
}

var loaders = map[types.FileType]Loader{
	types.FileTypePDF:  PDFLoader{},
	types.FileTypeDOCX: DOCXLoader{},
	types.FileTypeTXT:  TXTLoader{},
}

// ForType returns the loader for a file type
func ForType(ft types.FileType) (Loader, error) {
	loader, ok := loaders[ft]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
			fmt.Sprintf("Unsupported file type: %s", ft), nil)
	}
	return loader, nil
}

// DetectFileType maps a filename extension to a supported file type
func DetectFileType(filename string) (types.FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return types.FileTypePDF, nil
	case ".docx", ".doc":
		return types.FileTypeDOCX, nil
	case ".txt":
		return types.FileTypeTXT, nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
			fmt.Sprintf("Unsupported file extension: %s (supported: .pdf, .docx, .txt)", filepath.Ext(filename)), nil)
	}
}

// Load extracts text from path, detecting the format from the extension
func Load(path string) (string, types.FileType, error) {
	ft, err := DetectFileType(path)
	if err != nil {
		return "", "", err
	}
	loader, err := ForType(ft)
	if err != nil {
		return "", "", err
	}
	text, err := loader.Load(path)
	if err != nil {
		return "", "", err
	}
	return text, ft, nil
}

// PDFLoader extracts text from PDF files page by page
type PDFLoader struct{}

func (PDFLoader) Load(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			"Failed to open PDF file", err).WithContext("path", path)
	}
	defer f.Close()

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages, the rest of the document is still useful
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := textBuilder.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"No text content found in PDF", nil).WithContext("path", path)
	}

	return text, nil
}

// DOCXLoader extracts text from Word documents via docconv
type DOCXLoader struct{}

func (DOCXLoader) Load(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			"Failed to convert document", err).WithContext("path", path)
	}
	if strings.TrimSpace(res.Body) == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"No text content found in document", nil).WithContext("path", path)
	}
	return res.Body, nil
}

// TXTLoader reads plain text files
type TXTLoader struct{}

func (TXTLoader) Load(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			"Failed to read text file", err).WithContext("path", path)
	}
	if strings.TrimSpace(string(content)) == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"Text file is empty", nil).WithContext("path", path)
	}
	return string(content), nil
}
