package main

import (
	"context"
	"fmt"

	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/storage"
	"github.com/angelmondragon/gatepass-backend/pkg/storage/local"
	"github.com/angelmondragon/gatepass-backend/pkg/storage/s3"
)

func newBlobStore(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (storage.BlobStore, error) {
	switch cfg.Backend {
	case config.StorageBackendS3:
		return s3.New(ctx, cfg, logg)
	case config.StorageBackendLocal, "":
		return local.New(cfg.LocalRoot)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
