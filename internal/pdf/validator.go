package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ValidateResult is the outcome of validating a file before extraction
type ValidateResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Size    int64  `json:"size,omitempty"`
	Message string `json:"message,omitempty"`
}

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks a file and reports the outcome; problems with the file
// are reported in the result, not as an error
func (v *Validator) ValidateFile(path string) *ValidateResult {
	result := &ValidateResult{Path: path}

	size, pages, err := v.validatePDFFile(path)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	result.Valid = true
	result.Size = size
	result.Pages = pages
	return result
}

// Check returns the first problem found with the file
func (v *Validator) Check(path string) error {
	_, _, err := v.validatePDFFile(path)
	return err
}

func (v *Validator) validatePDFFile(filePath string) (size int64, pages int, err error) {
	if filePath == "" {
		return 0, 0, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return 0, 0, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return 0, 0, err
	}

	defer recoverInto(&err, "validate", 0)

	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	pages = reader.NumPage()
	if pages == 0 {
		return 0, 0, fmt.Errorf("PDF has no pages: %s", filePath)
	}

	return fileInfo.Size(), pages, nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
