// Package storage keeps uploaded profile media.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type Category string

const (
	CategoryProfileImage Category = "profile"
	CategoryPortfolio    Category = "portfolio"
	CategoryGallery      Category = "gallery"
)

// MaxUploadSize bounds a single upload.
const MaxUploadSize = 10 << 20

var (
	ErrNotImage      = errors.New("file is not a supported image")
	ErrEmptyFile     = errors.New("file is empty")
	ErrFileTooLarge  = errors.New("file exceeds upload limit")
	ErrInvalidName   = errors.New("invalid file name")
	ErrMediaNotFound = errors.New("media not found")
)

// MediaStore uploads owner media and returns a permanent URL.
type MediaStore interface {
	Upload(ctx context.Context, data []byte, ownerID string, category Category, name string) (string, error)
	Delete(ctx context.Context, url string) error
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalMediaStore writes files under dir and serves them from baseURL.
type LocalMediaStore struct {
	dir     string
	baseURL string
}

func NewLocalMediaStore(dir, baseURL string) (*LocalMediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &LocalMediaStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload stores data. Images are checked by content sniffing; portfolio
// documents are kept byte for byte. An empty name uses the category name,
// so profile images and portfolios replace the previous file.
func (s *LocalMediaStore) Upload(ctx context.Context, data []byte, ownerID string, category Category, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if len(data) > MaxUploadSize {
		return "", ErrFileTooLarge
	}

	ext, err := extensionFor(data, category)
	if err != nil {
		return "", err
	}

	if name == "" {
		name = string(category)
	}
	if !safeSegment(name) || !safeSegment(ownerID) {
		return "", ErrInvalidName
	}

	rel := path.Join(ownerID, string(category), name+ext)
	full := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media: %w", err)
	}

	return s.baseURL + "/" + rel, nil
}

func (s *LocalMediaStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || strings.Contains(rel, "..") {
		return ErrMediaNotFound
	}

	full := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return nil
}

func extensionFor(data []byte, category Category) (string, error) {
	contentType := http.DetectContentType(data)
	switch category {
	case CategoryProfileImage, CategoryGallery:
		ext, ok := imageExtensions[contentType]
		if !ok {
			return "", ErrNotImage
		}
		return ext, nil
	case CategoryPortfolio:
		if contentType == "application/pdf" {
			return ".pdf", nil
		}
		return ".bin", nil
	}
	return "", fmt.Errorf("unknown media category %q", category)
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
