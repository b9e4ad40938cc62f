package services

import (
	"fmt"
	"mime/multipart"

	"github.com/harborpoint/homewatch-api/utils"
)

// UploadService handles validated file uploads into the allow-listed storage
// buckets (inspection photos, property documents, avatars)
type UploadService interface {
	// Upload validates and stores a file, returns the generated object key
	Upload(fileHeader *multipart.FileHeader, bucket string) (string, error)

	// GetURL generates a signed URL for accessing an uploaded object
	GetURL(key string) (string, error)

	// Delete removes an object from storage
	Delete(key string) error
}

// S3UploadService implements UploadService using AWS S3 for storage
type S3UploadService struct {
	s3Service S3Interface
}

var uploadServiceInstance UploadService

// InitUploadService initializes the upload service with S3 backend
func InitUploadService(s3Service S3Interface) UploadService {
	uploadServiceInstance = &S3UploadService{
		s3Service: s3Service,
	}
	return uploadServiceInstance
}

// GetUploadService returns the initialized upload service instance
func GetUploadService() UploadService {
	return uploadServiceInstance
}

// SetUploadService sets the upload service instance (primarily for testing)
func SetUploadService(service UploadService) {
	uploadServiceInstance = service
}

// Upload validates the file and bucket, generates a collision-resistant
// object key, and stores the blob.
func (s *S3UploadService) Upload(fileHeader *multipart.FileHeader, bucket string) (string, error) {
	if err := utils.ValidateUploadBucket(bucket); err != nil {
		return "", err
	}
	if err := utils.ValidateUploadFile(fileHeader); err != nil {
		return "", err
	}

	key := utils.GenerateObjectKey(bucket, fileHeader.Filename)

	if err := s.s3Service.UploadFile(fileHeader, key); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return key, nil
}

// GetURL generates a presigned URL for accessing an uploaded object
func (s *S3UploadService) GetURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(key)
	if err != nil {
		return "", fmt.Errorf("failed to generate file URL: %w", err)
	}

	return url, nil
}

// Delete deletes an object from S3
func (s *S3UploadService) Delete(key string) error {
	if key == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(key); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
