package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"ecommerce/pkg/domain/model"
)

var ErrInvalidFileID = errors.New("invalid file id")

// LocalStorage keeps uploaded files in a directory that the HTTP server
// exposes under baseURL.
type LocalStorage struct {
	dir     string
	baseURL string
}

var _ model.FileStorage = (*LocalStorage)(nil)

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create storage directory %s", dir)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Upload(_ context.Context, name string, content []byte) (model.StoredFile, error) {
	id := uuid.NewString() + "-" + sanitize(name)
	if err := os.WriteFile(filepath.Join(s.dir, id), content, 0o644); err != nil {
		return model.StoredFile{}, errors.Wrap(err, "write file")
	}
	return model.StoredFile{ID: id, URL: s.baseURL + "/" + id}, nil
}

func (s *LocalStorage) Fetch(_ context.Context, id string) ([]byte, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	return content, errors.Wrap(err, "read file")
}

func (s *LocalStorage) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove file")
	}
	return nil
}

func (s *LocalStorage) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", ErrInvalidFileID
	}
	return filepath.Join(s.dir, id), nil
}

func sanitize(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
