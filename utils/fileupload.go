package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

// Storage bucket names clients may upload into
const (
	BucketInspectionPhotos  = "inspection-photos"
	BucketPropertyDocuments = "property-documents"
	BucketAvatars           = "avatars"
)

// AllowedBuckets is the allow-list of upload buckets.
var AllowedBuckets = map[string]bool{
	BucketInspectionPhotos:  true,
	BucketPropertyDocuments: true,
	BucketAvatars:           true,
}

// allowedExtensions maps accepted file extensions to their content types.
var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateUploadBucket checks the target bucket against the allow-list
func ValidateUploadBucket(bucket string) error {
	if !AllowedBuckets[bucket] {
		return &FileUploadError{
			Code:    "INVALID_BUCKET",
			Message: fmt.Sprintf("Bucket %q is not an allowed upload target", bucket),
		}
	}
	return nil
}

// ValidateUploadFile validates the uploaded file format and size
func ValidateUploadFile(fileHeader *multipart.FileHeader) error {
	// Check file size
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("File type %q is not allowed", ext),
		}
	}

	return nil
}

// GenerateObjectKey builds a collision-resistant object key within a bucket,
// keeping the original extension.
func GenerateObjectKey(bucket, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", bucket, uuid.NewString(), ext)
}

// ContentTypeForFilename returns the content type for an allowed file
// extension, defaulting to application/octet-stream.
func ContentTypeForFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := allowedExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
