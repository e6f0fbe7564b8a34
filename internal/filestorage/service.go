package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"magic_broom_backend/internal/config"
)

// AvatarsSubDir is where profile pictures land under the upload directory.
const AvatarsSubDir = "avatars"

// FileStorageService provides operations for storing and deleting files.
type FileStorageService struct {
	storagePath string
	logger      *zap.Logger
}

// NewFileStorageService creates a new FileStorageService.
func NewFileStorageService(storagePath string, logger *zap.Logger) (*FileStorageService, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(storagePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", storagePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", storagePath, err)
	}
	logger.Info("FileStorageService initialized", zap.String("storagePath", storagePath))
	return &FileStorageService{storagePath: storagePath, logger: logger}, nil
}

// NewFromConfig builds the service from the configured upload directory.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (*FileStorageService, error) {
	return NewFileStorageService(cfg.UploadDir, logger)
}

// SaveUploadedFile saves a multipart file to a sub-directory within the
// storage path under a generated UUID filename. Returns the relative path of
// the saved file (e.g. "avatars/uuid.jpg").
func (s *FileStorageService) SaveUploadedFile(fileHeader *multipart.FileHeader, subDir string) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("fileHeader cannot be nil")
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	originalFilename := filepath.Base(fileHeader.Filename)
	extension := strings.ToLower(filepath.Ext(originalFilename))
	if extension == "" {
		contentType := fileHeader.Header.Get("Content-Type")
		switch {
		case strings.HasPrefix(contentType, "image/jpeg"):
			extension = ".jpg"
		case strings.HasPrefix(contentType, "image/png"):
			extension = ".png"
		case strings.HasPrefix(contentType, "image/gif"):
			extension = ".gif"
		}
	}
	switch extension {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		return "", fmt.Errorf("unsupported file type or missing extension: %s", fileHeader.Header.Get("Content-Type"))
	}
	uniqueFilename := uuid.New().String() + extension

	cleanSubDir := filepath.Clean(subDir)
	if strings.HasPrefix(cleanSubDir, "..") {
		s.logger.Error("Invalid subDir, attempts to navigate up", zap.String("subDir", subDir))
		return "", fmt.Errorf("invalid subDir path")
	}

	destinationDir := filepath.Join(s.storagePath, cleanSubDir)
	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		s.logger.Error("Failed to create sub-directory for file storage", zap.String("path", destinationDir), zap.Error(err))
		return "", fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}

	destinationPath := filepath.Join(destinationDir, uniqueFilename)

	dst, err := os.Create(destinationPath)
	if err != nil {
		s.logger.Error("Failed to create destination file", zap.String("path", destinationPath), zap.Error(err))
		return "", fmt.Errorf("failed to create file %s: %w", destinationPath, err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		s.logger.Error("Failed to copy uploaded file to destination", zap.String("path", destinationPath), zap.Error(err))
		os.Remove(destinationPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.logger.Info("File saved successfully", zap.String("path", destinationPath))
	return filepath.ToSlash(filepath.Join(cleanSubDir, uniqueFilename)), nil
}

// DeleteFile deletes a file given its path relative to the storagePath.
func (s *FileStorageService) DeleteFile(relativePath string) error {
	if relativePath == "" {
		return fmt.Errorf("relative path cannot be empty")
	}

	// Reject traversal attempts before touching the filesystem.
	cleanRelativePath := filepath.Clean(relativePath)
	if strings.Contains(cleanRelativePath, "..") {
		s.logger.Warn("Attempt to delete file with path traversal", zap.String("relativePath", relativePath))
		return fmt.Errorf("invalid file path for deletion")
	}

	fullPath := filepath.Join(s.storagePath, cleanRelativePath)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		s.logger.Warn("Attempt to delete non-existent file", zap.String("path", fullPath))
		return nil
	}

	if err := os.Remove(fullPath); err != nil {
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	s.logger.Info("File deleted successfully", zap.String("path", fullPath))
	return nil
}
