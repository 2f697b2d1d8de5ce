// Package dbtest opens throwaway SQLite databases with the full schema for
// package tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/db"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
)

// Open returns a client bound to a fresh SQLite file under t.TempDir.
func Open(t testing.TB) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver:     db.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "gatepass.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := client.DB().AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
