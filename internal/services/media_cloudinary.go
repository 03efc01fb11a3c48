package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStorage keeps images in one Cloudinary folder. The stored name
// doubles as the public id (minus extension) under that folder.
type CloudinaryStorage struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	folder    string
}

func NewCloudinaryStorage(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryStorage{
		cld:       cld,
		cloudName: cloudName,
		folder:    strings.Trim(folder, "/"),
	}, nil
}

func (s *CloudinaryStorage) publicID(name string) string {
	id := strings.TrimSuffix(name, path.Ext(name))
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

func (s *CloudinaryStorage) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     s.publicID(name),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload to Cloudinary: %s", res.Error.Message)
	}

	return res.SecureURL, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     s.publicID(name),
		ResourceType: "image",
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	switch res.Result {
	case "ok":
		return true, nil
	case "not found":
		return false, nil
	}
	if res.Error.Message != "" {
		return false, errors.New(res.Error.Message)
	}
	return false, fmt.Errorf("unexpected Cloudinary destroy result %q", res.Result)
}

// NameFromURL accepts delivery URLs of the form
// https://res.cloudinary.com/<cloud>/image/upload/v<version>/<folder>/<name>.
func (s *CloudinaryStorage) NameFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !isCloudinaryHost(u.Hostname()) {
		return "", false
	}
	if !strings.HasPrefix(u.Path, "/"+s.cloudName+"/image/upload/") {
		return "", false
	}
	dir := path.Dir(u.Path)
	if s.folder != "" && !strings.HasSuffix(dir, "/"+s.folder) {
		return "", false
	}
	name := path.Base(u.Path)
	if !validName(name) {
		return "", false
	}
	return name, true
}

func isCloudinaryHost(host string) bool {
	host = strings.ToLower(host)
	return host == "cloudinary.com" || strings.HasSuffix(host, ".cloudinary.com")
}
