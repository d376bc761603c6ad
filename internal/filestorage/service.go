// File: internal/filestorage/service.go

// Package filestorage saves uploaded files (avatars, portfolio images) under
// the configured upload root and serves their relative paths back to callers.
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
)

// Service stores and deletes uploaded files on local disk.
type Service struct {
	storagePath string
	logger      *zap.Logger
}

// NewService creates the upload root if needed.
func NewService(storagePath string, logger *zap.Logger) (*Service, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(storagePath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("creating storage path %s: %w", storagePath, err)
	}
	logger.Info("File storage initialized", zap.String("path", storagePath))
	return &Service{storagePath: storagePath, logger: logger}, nil
}

// BasePath returns the upload root, used to mount the static file route.
func (s *Service) BasePath() string {
	return s.storagePath
}

// SaveUploadedFile stores a multipart file under subDir with a generated
// name and returns its path relative to the upload root, e.g.
// "avatars/3f2a….jpg".
func (s *Service) SaveUploadedFile(fileHeader *multipart.FileHeader, subDir string) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("fileHeader cannot be nil")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("opening uploaded file: %w", err)
	}
	defer src.Close()

	extension := filepath.Ext(filepath.Base(fileHeader.Filename))
	if extension == "" {
		switch contentType := fileHeader.Header.Get("Content-Type"); {
		case strings.HasPrefix(contentType, "image/jpeg"):
			extension = ".jpg"
		case strings.HasPrefix(contentType, "image/png"):
			extension = ".png"
		case strings.HasPrefix(contentType, "image/webp"):
			extension = ".webp"
		default:
			return "", fmt.Errorf("unsupported file type or missing extension: %s", contentType)
		}
	}

	cleanSubDir := filepath.Clean(subDir)
	if strings.HasPrefix(cleanSubDir, "..") {
		return "", fmt.Errorf("invalid subDir path")
	}
	destinationDir := filepath.Join(s.storagePath, cleanSubDir)
	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", destinationDir, err)
	}

	uniqueFilename := uuid.NewString() + extension
	destinationPath := filepath.Join(destinationDir, uniqueFilename)

	dst, err := os.Create(destinationPath)
	if err != nil {
		return "", fmt.Errorf("creating file %s: %w", destinationPath, err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		os.Remove(destinationPath)
		return "", fmt.Errorf("saving file: %w", err)
	}

	s.logger.Debug("File saved", zap.String("path", destinationPath))
	return filepath.ToSlash(filepath.Join(cleanSubDir, uniqueFilename)), nil
}

// DeleteFile removes a file by its path relative to the upload root. Missing
// files are not an error.
func (s *Service) DeleteFile(relativePath string) error {
	if relativePath == "" {
		return fmt.Errorf("relative path cannot be empty")
	}
	cleanRelativePath := filepath.Clean(relativePath)
	if strings.Contains(cleanRelativePath, "..") {
		s.logger.Warn("Rejected file deletion with path traversal", zap.String("path", relativePath))
		return fmt.Errorf("invalid file path for deletion")
	}

	fullPath := filepath.Join(s.storagePath, cleanRelativePath)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file %s: %w", fullPath, err)
	}
	return nil
}
