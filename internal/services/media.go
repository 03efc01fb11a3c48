package services

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Storage is a backend that holds uploaded images under flat names.
type Storage interface {
	// Save stores r under name and returns the public URL of the object.
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	// Delete removes name, reporting whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
	// NameFromURL returns the stored name behind a URL issued by Save, or
	// false if the URL does not point into this backend.
	NameFromURL(rawURL string) (string, bool)
}

var imageExtensions = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".png":  ".png",
	".gif":  ".gif",
	".webp": ".webp",
	".avif": ".avif",
	".bmp":  ".bmp",
	".heic": ".heic",
}

// MediaService stores story images. Stored names are "<ownerId>-<uuid><ext>"
// so removal can be restricted to the uploader.
type MediaService struct {
	storage Storage
}

func NewMediaService(storage Storage) *MediaService {
	return &MediaService{storage: storage}
}

// Upload stores an image for owner and returns its URL.
func (s *MediaService) Upload(ctx context.Context, owner, filename, contentType string, r io.Reader) (string, error) {
	if r == nil || filename == "" {
		return "", invalid("No image uploaded")
	}
	ext, ok := imageExtensions[strings.ToLower(path.Ext(filename))]
	if !ok {
		return "", invalid("Only image files (jpg, png, gif, webp, avif, bmp, heic) are allowed")
	}
	name := owner + "-" + uuid.NewString() + ext
	return s.storage.Save(ctx, name, contentType, r)
}

// Delete removes an image previously uploaded by owner. It reports false,
// without error, when the URL is foreign, belongs to someone else, or the
// object is already gone.
func (s *MediaService) Delete(ctx context.Context, owner, imageURL string) (bool, error) {
	if strings.TrimSpace(imageURL) == "" {
		return false, invalid("imageUrl parameter is required")
	}
	name, ok := s.storage.NameFromURL(imageURL)
	if !ok || !ownedName(owner, name) {
		return false, nil
	}
	return s.storage.Delete(ctx, name)
}

func ownedName(owner, name string) bool {
	if owner == "" || !validName(name) {
		return false
	}
	return strings.HasPrefix(name, owner+"-")
}

// validName accepts a single path element with no separators or dot-only names.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
