// Package qr renders asset QR codes and stores the images either on local
// disk or in a MinIO bucket. Callers keep only the returned image reference.
package qr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const imageSize = 256

// Rendered is a freshly produced QR image
type Rendered struct {
	Content  string // what the code encodes
	ImageRef string // opaque handle for later Release
}

// Renderer produces QR images for assets and releases old ones.
type Renderer interface {
	Render(ctx context.Context, assetID uint) (Rendered, error)
	Release(ctx context.Context, imageRef string) error
}

// Content returns the URL encoded for an asset
func Content(baseURL string, assetID uint) string {
	return fmt.Sprintf("%s/%d", strings.TrimRight(baseURL, "/"), assetID)
}

// EncodePNG renders content as a PNG
func EncodePNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, imageSize)
}

func objectName(assetID uint) string {
	return fmt.Sprintf("asset_%d_%s.png", assetID, uuid.New().String()[:8])
}

// FileRenderer writes PNG files into a directory
type FileRenderer struct {
	dir     string
	baseURL string
}

func NewFileRenderer(dir, baseURL string) (*FileRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create qr dir: %w", err)
	}
	return &FileRenderer{dir: dir, baseURL: baseURL}, nil
}

func (r *FileRenderer) Render(_ context.Context, assetID uint) (Rendered, error) {
	content := Content(r.baseURL, assetID)
	name := objectName(assetID)
	if err := qrcode.WriteFile(content, qrcode.Medium, imageSize, filepath.Join(r.dir, name)); err != nil {
		return Rendered{}, fmt.Errorf("write qr image: %w", err)
	}
	return Rendered{Content: content, ImageRef: name}, nil
}

// Release removes the image file. A file that is already gone is not an error.
func (r *FileRenderer) Release(_ context.Context, imageRef string) error {
	if imageRef == "" {
		return nil
	}
	// refs are bare file names; refuse anything that walks out of dir
	if filepath.Base(imageRef) != imageRef {
		return fmt.Errorf("invalid qr image ref %q", imageRef)
	}
	err := os.Remove(filepath.Join(r.dir, imageRef))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove qr image: %w", err)
	}
	return nil
}
