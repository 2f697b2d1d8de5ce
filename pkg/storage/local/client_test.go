package local

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gatepass-backend/pkg/storage"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestPutOpenDelete(t *testing.T) {
	ctx := context.Background()
	client, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, client.Put(ctx, "qr/GP-2024-0001.png", pngHeader, "image/png"))

	obj, err := client.Open(ctx, "qr/GP-2024-0001.png")
	require.NoError(t, err)
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, body)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(len(pngHeader)), obj.Size)

	require.NoError(t, client.Delete(ctx, "qr/GP-2024-0001.png"))
	_, err = client.Open(ctx, "qr/GP-2024-0001.png")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	require.NoError(t, client.Delete(ctx, "qr/GP-2024-0001.png"), "deleting a missing key is a no-op")
}

func TestRejectsTraversal(t *testing.T) {
	client, err := New(t.TempDir())
	require.NoError(t, err)

	err = client.Put(context.Background(), "../outside.png", pngHeader, "image/png")
	require.Error(t, err)

	_, err = client.Open(context.Background(), "")
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	client, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, client.Ping(context.Background()))
}

func TestNewRequiresRoot(t *testing.T) {
	_, err := New("  ")
	require.Error(t, err)
}
