package services

import (
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/harborpoint/homewatch-api/utils"
)

// MockUploadService is a mock implementation of UploadService for testing
type MockUploadService struct {
	uploadedFiles map[string][]byte // map of object key to file content
	mu            sync.RWMutex
}

// NewMockUploadService creates a new mock upload service
func NewMockUploadService() *MockUploadService {
	return &MockUploadService{
		uploadedFiles: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global upload service instance for testing
func (m *MockUploadService) SetAsMockForTesting() {
	SetUploadService(m)
}

// Upload simulates a validated upload
func (m *MockUploadService) Upload(fileHeader *multipart.FileHeader, bucket string) (string, error) {
	// Same validation as the real service
	if err := utils.ValidateUploadBucket(bucket); err != nil {
		return "", err
	}
	if err := utils.ValidateUploadFile(fileHeader); err != nil {
		return "", err
	}

	// Open and read the file
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// Read file content
	content := make([]byte, fileHeader.Size)
	_, err = file.Read(content)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Deterministic mock key
	key := fmt.Sprintf("%s/mock_%s", bucket, fileHeader.Filename)

	// Store in mock storage
	m.mu.Lock()
	m.uploadedFiles[key] = content
	m.mu.Unlock()

	return key, nil
}

// GetURL simulates generating a signed URL for an object
func (m *MockUploadService) GetURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	// Check if the object exists in mock storage
	m.mu.RLock()
	_, exists := m.uploadedFiles[key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock storage: %s", key)
	}

	// Return a mock URL
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// Delete simulates deleting an object
func (m *MockUploadService) Delete(key string) error {
	if key == "" {
		return nil
	}

	m.mu.Lock()
	delete(m.uploadedFiles, key)
	m.mu.Unlock()

	return nil
}

// GetUploadedFiles returns all uploaded files (for testing assertions)
func (m *MockUploadService) GetUploadedFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent race conditions
	files := make(map[string][]byte, len(m.uploadedFiles))
	for k, v := range m.uploadedFiles {
		files[k] = v
	}
	return files
}

// FileExists checks if an object exists in mock storage
func (m *MockUploadService) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedFiles[key]
	return exists
}

// Clear removes all objects from mock storage
func (m *MockUploadService) Clear() {
	m.mu.Lock()
	m.uploadedFiles = make(map[string][]byte)
	m.mu.Unlock()
}
