package filestore

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/felicity-events/felicity-api/internal/config"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".pdf":  true,
}

// LocalStore saves uploads (payment proofs) on local disk under random
// names and serves them from a public path.
type LocalStore struct {
	dir        string
	maxSize    int64
	publicPath string
}

func NewLocalStore(conf *config.UploadConfig) (*LocalStore, error) {
	if err := os.MkdirAll(conf.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll -> %w", err)
	}

	return &LocalStore{
		dir:        conf.Dir,
		maxSize:    conf.MaxSizeMB << 20,
		publicPath: strings.TrimSuffix(conf.PublicPath, "/"),
	}, nil
}

// Save stores the upload and returns its public URL path.
func (s *LocalStore) Save(file *multipart.FileHeader) (string, error) {
	if file.Size > s.maxSize {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("file.Open -> %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("os.Create -> %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("io.Copy -> %w", err)
	}

	return s.publicPath + "/" + name, nil
}

// Dir exposes the storage directory for static file serving.
func (s *LocalStore) Dir() string {
	return s.dir
}
