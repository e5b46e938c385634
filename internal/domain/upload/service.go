// internal/domain/upload/service.go
package upload

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
)

var (
	ErrFileTooLarge    = errors.New("file is too large")
	ErrExtensionDenied = errors.New("file type is not allowed")
	ErrNotAnImage      = errors.New("file is not a valid image")
	ErrImageTooLarge   = errors.New("image dimensions exceed the allowed maximum")
)

// Stored describes a saved file
type Stored struct {
	Path   string `json:"-"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Service stores user images on the local disk
type Service struct {
	cfg    config.UploadConfig
	logger *logrus.Logger
}

// NewService creates a new upload service
func NewService(cfg config.UploadConfig, logger *logrus.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// SaveAvatar validates an uploaded image and writes it under avatars/<user id>/
func (s *Service) SaveAvatar(userID uint, header *multipart.FileHeader) (*Stored, error) {
	if err := s.validate(header); err != nil {
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	width, height, err := s.dimensions(src)
	if err != nil {
		return nil, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	relativePath := filepath.Join("avatars", fmt.Sprint(userID), uniqueFilename(header.Filename))
	fullPath := filepath.Join(s.cfg.LocalPath, relativePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"path":    relativePath,
		"size":    written,
	}).Info("Avatar stored")

	return &Stored{
		Path:   relativePath,
		URL:    s.fileURL(relativePath),
		Size:   written,
		Width:  width,
		Height: height,
	}, nil
}

// Remove deletes a file previously returned by SaveAvatar, given its URL.
// Unknown or foreign URLs are ignored.
func (s *Service) Remove(url string) {
	prefix := strings.TrimRight(s.cfg.BaseURL, "/") + "/"
	if url == "" || !strings.HasPrefix(url, prefix) {
		return
	}
	rel := filepath.Clean(strings.TrimPrefix(url, prefix))
	if strings.HasPrefix(rel, "..") {
		return
	}
	if err := os.Remove(filepath.Join(s.cfg.LocalPath, rel)); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).WithField("path", rel).Warn("Failed to remove old avatar")
	}
}

func (s *Service) validate(header *multipart.FileHeader) error {
	if header == nil {
		return ErrNotAnImage
	}
	if s.cfg.MaxSize > 0 && header.Size > s.cfg.MaxSize {
		return fmt.Errorf("%w: maximum is %d bytes", ErrFileTooLarge, s.cfg.MaxSize)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: .%s", ErrExtensionDenied, ext)
}

func (s *Service) dimensions(r io.Reader) (int, int, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, ErrNotAnImage
	}
	if (s.cfg.ImageMaxWidth > 0 && cfg.Width > s.cfg.ImageMaxWidth) ||
		(s.cfg.ImageMaxHeight > 0 && cfg.Height > s.cfg.ImageMaxHeight) {
		return 0, 0, ErrImageTooLarge
	}
	return cfg.Width, cfg.Height, nil
}

func (s *Service) fileURL(relativePath string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + filepath.ToSlash(relativePath)
}

func uniqueFilename(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}
