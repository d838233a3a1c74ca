package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
	// MaxFilenameLength bounds the sanitized name kept in storage keys
	MaxFilenameLength = 100
)

// attachmentTypes maps the allowed attachment extensions to their content type
var attachmentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateAttachment validates the uploaded file format and size
func ValidateAttachment(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size == 0 {
		return &FileUploadError{
			Code:    "EMPTY_FILE",
			Message: "File is empty",
		}
	}

	// Check file size
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := attachmentTypes[ext]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedExtensions(), ", ")),
		}
	}

	return nil
}

// ContentTypeFor returns the content type stored with an attachment of the given name
func ContentTypeFor(filename string) string {
	if ct, ok := attachmentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// AllowedExtensions lists the accepted attachment extensions in sorted order
func AllowedExtensions() []string {
	exts := make([]string, 0, len(attachmentTypes))
	for ext := range attachmentTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// SanitizeFilename reduces a client supplied filename to a safe storage key segment
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	stem = strings.Trim(unsafeFilenameChars.ReplaceAllString(stem, "_"), "._-")
	if stem == "" {
		stem = "file"
	}
	if max := MaxFilenameLength - len(ext); len(stem) > max {
		stem = stem[:max]
	}
	return stem + ext
}
