package qrcodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/angelmondragon/gatepass-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
	"github.com/angelmondragon/gatepass-backend/pkg/storage"
)

const contentTypePNG = "image/png"

// Generator renders pass numbers as QR PNGs and keeps them in the blob store.
type Generator struct {
	store   storage.BlobStore
	baseURL string
	size    int
}

// NewGenerator wires the QR generator.
func NewGenerator(store storage.BlobStore, cfg config.QRConfig) (*Generator, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "blob store required")
	}
	size := cfg.SizePx
	if size <= 0 {
		size = 256
	}
	return &Generator{
		store:   store,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		size:    size,
	}, nil
}

// Key returns the blob key of a pass's QR image.
func Key(passNumber string) string {
	return "qr/" + passNumber + ".png"
}

// Render encodes passNumber as a PNG without touching the blob store.
func (g *Generator) Render(passNumber string) ([]byte, error) {
	if strings.TrimSpace(passNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pass number required")
	}
	png, err := qrcode.Encode(passNumber, qrcode.Low, g.size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode qr code")
	}
	return png, nil
}

// Store uploads a rendered image under the pass's key.
func (g *Generator) Store(ctx context.Context, passNumber string, png []byte) error {
	if err := g.store.Put(ctx, Key(passNumber), png, contentTypePNG); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store qr code")
	}
	return nil
}

// URL is the reference stored on the pass.
func (g *Generator) URL(passNumber string) string {
	return fmt.Sprintf("%s/%s", g.baseURL, passNumber)
}

// Open streams a previously stored QR image.
func (g *Generator) Open(ctx context.Context, passNumber string) (*storage.Object, error) {
	obj, err := g.store.Open(ctx, Key(passNumber))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "qr code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open qr code")
	}
	if obj.ContentType == "" {
		obj.ContentType = contentTypePNG
	}
	return obj, nil
}
