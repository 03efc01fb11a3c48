package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes images into a directory served at baseURL.
type LocalStorage struct {
	dir     string
	baseURL string
	urlPath string
}

// NewLocalStorage creates dir if needed. baseURL is the public URL of the
// directory, e.g. http://localhost:8000/uploads.
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	baseURL = strings.TrimRight(baseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upload base url: %w", err)
	}
	return &LocalStorage{dir: abs, baseURL: baseURL, urlPath: strings.TrimRight(u.Path, "/")}, nil
}

func (s *LocalStorage) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	p, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return "", err
	}
	return s.baseURL + "/" + url.PathEscape(name), nil
}

func (s *LocalStorage) Delete(ctx context.Context, name string) (bool, error) {
	p, err := s.resolve(name)
	if err != nil {
		return false, nil
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *LocalStorage) NameFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "", false
	}
	if path.Dir(u.Path) != s.urlPath && !(s.urlPath == "" && path.Dir(u.Path) == "/") {
		return "", false
	}
	name := path.Base(u.Path)
	if !validName(name) {
		return "", false
	}
	return name, true
}

// resolve joins name onto the upload dir and refuses anything that escapes it.
func (s *LocalStorage) resolve(name string) (string, error) {
	if !validName(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	p := filepath.Join(s.dir, name)
	rel, err := filepath.Rel(s.dir, p)
	if err != nil || rel != name {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return p, nil
}
