//go:build integration

package gatepasses

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/angelmondragon/gatepass-backend/internal/notifications"
	"github.com/angelmondragon/gatepass-backend/internal/photos"
	"github.com/angelmondragon/gatepass-backend/internal/qrcodes"
	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/db"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/metrics"
	"github.com/angelmondragon/gatepass-backend/pkg/migrate"
	"github.com/angelmondragon/gatepass-backend/pkg/storage/local"
)

func newPostgresService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gatepass_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := db.New(ctx, config.DBConfig{Driver: db.DriverPostgres, DSN: dsn, MaxOpenConns: 20, MaxIdleConns: 5}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, sqlDB, "", "up"))

	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	qr, err := qrcodes.NewGenerator(store, config.QRConfig{SizePx: 64, BaseURL: "/api/v1/qr"})
	require.NoError(t, err)
	photoSvc, err := photos.NewService(photos.NewRepository(client.DB()), store, 1<<20, nil)
	require.NoError(t, err)
	emitter, err := notifications.NewDirectEmitter(notifications.NewRepository(client.DB()))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		DB:         client,
		Repository: NewRepository(client.DB()),
		Photos:     photoSvc,
		QR:         qr,
		Notifier:   emitter,
		Config: config.LifecycleConfig{
			NumberPrefix:          "GP",
			TimeZone:              "UTC",
			AllocationMaxAttempts: 5,
		},
		Logger:  logger.New(logger.Options{ServiceName: "gatepasses-integration", Output: io.Discard}),
		Metrics: metrics.NewLifecycleMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestPostgresConcurrentCreatesYieldContiguousNumbers(t *testing.T) {
	svc := newPostgresService(t)
	ctx := context.Background()

	const workers = 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pass, err := svc.Create(ctx, CreateInput{
				PersonName:  "Grace Hopper",
				Description: "Oscilloscope",
				CreatedBy:   "hr-1",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, pass.Number)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Strings(numbers)
	want := make([]string, 0, workers)
	for i := 1; i <= workers; i++ {
		want = append(want, FormatNumber("GP", 2024, i))
	}
	assert.Equal(t, want, numbers)
}

func TestPostgresConcurrentScansHaveSingleWinner(t *testing.T) {
	svc := newPostgresService(t)
	ctx := context.Background()

	pass, err := svc.Create(ctx, CreateInput{
		PersonName:   "Alan Turing",
		Description:  "Projector",
		IsReturnable: true,
		CreatedBy:    "hr-1",
	})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, pass.ID, "admin-1")
	require.NoError(t, err)

	const scanners = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ScanExit(ctx, ScanInput{PassNumber: pass.Number, Photo: testPhoto, ScannedBy: "gate-1"})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	got, err := svc.Get(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.GatePassStatusPendingReturn, got.Status)
	assertHistoryConsistent(t, got)
}
