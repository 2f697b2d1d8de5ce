package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/angelmondragon/gatepass-backend/pkg/storage"
)

// Client stores blobs as files below a root directory.
type Client struct {
	root string
}

var _ storage.BlobStore = (*Client)(nil)

// New creates the root directory when missing.
func New(root string) (*Client, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("local storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Client{root: abs}, nil
}

func (c *Client) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	full := filepath.Join(c.root, filepath.FromSlash(key))
	if !strings.HasPrefix(full, c.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage key %q escapes root", key)
	}
	return full, nil
}

func (c *Client) Put(ctx context.Context, key string, data []byte, _ string) error {
	full, err := c.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

func (c *Client) Open(ctx context.Context, key string) (*storage.Object, error) {
	full, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	mtype, err := mimetype.DetectFile(full)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	return &storage.Object{Body: f, ContentType: mtype.String(), Size: info.Size()}, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	full, err := c.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Ping checks the root directory is still present and writable.
func (c *Client) Ping(ctx context.Context) error {
	info, err := os.Stat(c.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", c.root)
	}
	probe, err := os.CreateTemp(c.root, ".ping-*")
	if err != nil {
		return fmt.Errorf("storage root not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}
