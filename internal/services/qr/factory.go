package qr

import (
	"context"
	"fmt"

	"github.com/xelth-com/eckassets/internal/config"
)

// New builds the renderer selected by cfg.Driver
func New(ctx context.Context, cfg config.QRConfig) (Renderer, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileRenderer(cfg.Dir, cfg.BaseURL)
	case "minio":
		return NewMinioRenderer(ctx, cfg.MinIO, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown QR_DRIVER %q", cfg.Driver)
	}
}
