package gatepasses

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/gatepass-backend/internal/notifications"
	"github.com/angelmondragon/gatepass-backend/internal/photos"
	"github.com/angelmondragon/gatepass-backend/internal/qrcodes"
	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/db"
	"github.com/angelmondragon/gatepass-backend/pkg/db/dbtest"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/metrics"
	"github.com/angelmondragon/gatepass-backend/pkg/storage"
	"github.com/angelmondragon/gatepass-backend/pkg/storage/local"
)

var (
	testPhoto = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00gate-photo")
	testNow   = time.Date(2024, 7, 15, 9, 30, 0, 0, time.UTC)
)

type fixture struct {
	svc      *Service
	client   *db.Client
	registry *prometheus.Registry
}

type fixtureOption func(*ServiceParams)

func withMaxAttempts(n int) fixtureOption {
	return func(p *ServiceParams) { p.Config.AllocationMaxAttempts = n }
}

func withNotifier(n Notifier) fixtureOption {
	return func(p *ServiceParams) { p.Notifier = n }
}

func withQR(q QREncoder) fixtureOption {
	return func(p *ServiceParams) { p.QR = q }
}

type failingPutStore struct {
	storage.BlobStore
	mu   sync.Mutex
	fail bool
}

func (s *failingPutStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return errors.New("blob store unavailable")
	}
	return s.BlobStore.Put(ctx, key, data, contentType)
}

func (s *failingPutStore) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	store, err := local.New(t.TempDir())
	require.NoError(t, err)

	qr, err := qrcodes.NewGenerator(store, config.QRConfig{SizePx: 64, BaseURL: "/api/v1/qr"})
	require.NoError(t, err)
	photoSvc, err := photos.NewService(photos.NewRepository(client.DB()), store, 1<<20, nil)
	require.NoError(t, err)
	emitter, err := notifications.NewDirectEmitter(notifications.NewRepository(client.DB()))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	params := ServiceParams{
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
		Logger:  logger.New(logger.Options{ServiceName: "gatepasses-test", Output: io.Discard}),
		Metrics: metrics.NewLifecycleMetrics(reg),
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }
	return &fixture{svc: svc, client: client, registry: reg}
}

func (f *fixture) create(t *testing.T, returnable bool) *models.GatePass {
	t.Helper()
	pass, err := f.svc.Create(context.Background(), CreateInput{
		PersonName:   "Ada Lovelace",
		Description:  "Laptop for repair",
		IsReturnable: returnable,
		CreatedBy:    "hr-1",
	})
	require.NoError(t, err)
	return pass
}

func (f *fixture) seedPass(t *testing.T, year, seq int) {
	t.Helper()
	pass := models.GatePass{
		ID:          uuid.New(),
		Number:      FormatNumber("GP", year, seq),
		NumberYear:  year,
		NumberSeq:   seq,
		PersonName:  "seeded",
		Description: "seeded",
		CreatedBy:   "hr-0",
		Status:      enums.GatePassStatusPending,
		QRCodeURL:   "/api/v1/qr/" + FormatNumber("GP", year, seq),
		CreatedAt:   time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.client.DB().Create(&pass).Error)
}

func (f *fixture) notifications(t *testing.T) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, f.client.DB().Order("created_at ASC, title ASC").Find(&rows).Error)
	return rows
}

func (f *fixture) counter(t *testing.T, name string) float64 {
	t.Helper()
	mfs, err := f.registry.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code(), "error: %v", err)
}

func assertHistoryConsistent(t *testing.T, pass *models.GatePass) {
	t.Helper()
	require.NotEmpty(t, pass.StatusHistory)
	last := pass.StatusHistory[len(pass.StatusHistory)-1]
	assert.Equal(t, pass.Status, last.Status)
	for i, entry := range pass.StatusHistory {
		assert.Equal(t, i+1, entry.Sequence)
	}
}

func TestCreateStartsPending(t *testing.T) {
	f := newFixture(t)
	pass := f.create(t, true)

	assert.Equal(t, "GP-2024-0001", pass.Number)
	assert.Equal(t, enums.GatePassStatusPending, pass.Status)
	assert.Equal(t, "/api/v1/qr/GP-2024-0001", pass.QRCodeURL)
	assert.Nil(t, pass.ApprovedAt)
	require.Len(t, pass.StatusHistory, 1)
	assert.Equal(t, "hr-1", pass.StatusHistory[0].ChangedBy)
	assertHistoryConsistent(t, pass)

	notes := f.notifications(t)
	require.Len(t, notes, 1)
	assert.Equal(t, enums.AudienceAdmin, notes[0].Audience)
	assert.Equal(t, "New gate pass request", notes[0].Title)
	assert.Equal(t, "New gate pass GP-2024-0001 created and pending approval", notes[0].Message)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateInput{PersonName: " ", Description: "x", CreatedBy: "hr"})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Create(context.Background(), CreateInput{PersonName: "x", Description: "x"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateContinuesExistingYearCount(t *testing.T) {
	f := newFixture(t)
	for seq := 1; seq <= 3; seq++ {
		f.seedPass(t, 2024, seq)
	}
	f.seedPass(t, 2023, 1)

	pass := f.create(t, false)
	assert.Equal(t, "GP-2024-0004", pass.Number)
	assert.Equal(t, 2024, pass.NumberYear)
	assert.Equal(t, 4, pass.NumberSeq)
}

func TestCreateRestartsSequenceEachYear(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "GP-2024-0001", f.create(t, false).Number)
	assert.Equal(t, "GP-2024-0002", f.create(t, false).Number)

	f.svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC) }
	assert.Equal(t, "GP-2025-0001", f.create(t, false).Number)
}

func TestCreateUsesConfiguredTimeZoneForYear(t *testing.T) {
	f := newFixture(t)
	f.svc.loc = time.FixedZone("UTC+05:30", 5*3600+1800)
	// 20:00 UTC on new year's eve is already the next year at +05:30.
	f.svc.now = func() time.Time { return time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC) }
	assert.Equal(t, "GP-2025-0001", f.create(t, false).Number)
}

func TestCreateRecoversFromDesyncedCounter(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "GP-2024-0001", f.create(t, false).Number)
	// written behind the allocator's back
	f.seedPass(t, 2024, 2)

	pass := f.create(t, false)
	assert.Equal(t, "GP-2024-0003", pass.Number)
	assert.Equal(t, float64(1), f.counter(t, "gatepass_number_allocation_retries_total"))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.GatePass{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t, withMaxAttempts(1))
	f.create(t, false)
	f.seedPass(t, 2024, 2)

	_, err := f.svc.Create(context.Background(), CreateInput{PersonName: "a", Description: "b", CreatedBy: "hr-1"})
	requireCode(t, err, pkgerrors.CodeConflict)
	assert.False(t, errors.Is(err, errDuplicateNumber), "duplicate number must not surface")
	assert.Equal(t, float64(1), f.counter(t, "gatepass_number_allocation_exhausted_total"))
}

func TestConcurrentCreatesYieldUniqueNumbers(t *testing.T) {
	f := newFixture(t)
	const n = 12

	var wg sync.WaitGroup
	numbers := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pass, err := f.svc.Create(context.Background(), CreateInput{
				PersonName:  fmt.Sprintf("person %d", i),
				Description: "box",
				CreatedBy:   "hr-1",
			})
			if err != nil {
				errs <- err
				return
			}
			numbers <- pass.Number
		}(i)
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("create failed: %v", err)
	}
	seen := map[string]bool{}
	for number := range numbers {
		require.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	require.Len(t, seen, n)
	for seq := 1; seq <= n; seq++ {
		assert.True(t, seen[FormatNumber("GP", 2024, seq)], "missing sequence %d", seq)
	}
}

func TestLookupRoundTrip(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, true)

	byID, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	byNumber, err := f.svc.GetByNumber(context.Background(), " "+created.Number+" ")
	require.NoError(t, err)

	assert.Equal(t, ToDTO(created), ToDTO(byID))
	assert.Equal(t, ToDTO(byID), ToDTO(byNumber))

	_, err = f.svc.Get(context.Background(), uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = f.svc.GetByNumber(context.Background(), "GP-1999-0001")
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = f.svc.GetByNumber(context.Background(), "")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestApproveTwiceFailsAndKeepsApprovedAt(t *testing.T) {
	f := newFixture(t)
	pass := f.create(t, false)

	approved, err := f.svc.Approve(context.Background(), pass.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, enums.GatePassStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	firstApprovedAt := *approved.ApprovedAt
	assertHistoryConsistent(t, approved)

	f.svc.now = func() time.Time { return testNow.Add(time.Hour) }
	_, err = f.svc.Approve(context.Background(), pass.ID, "admin-2")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	reloaded, err := f.svc.Get(context.Background(), pass.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ApprovedAt)
	assert.True(t, firstApprovedAt.Equal(*reloaded.ApprovedAt))
	assert.Len(t, reloaded.StatusHistory, 2)
}

func TestApproveNotifiesHR(t *testing.T) {
	f := newFixture(t)
	pass := f.create(t, false)
	_, err := f.svc.Approve(context.Background(), pass.ID, "admin-1")
	require.NoError(t, err)

	var hr []models.Notification
	require.NoError(t, f.client.DB().Where("audience = ?", enums.AudienceHR).Find(&hr).Error)
	require.Len(t, hr, 1)
	assert.Equal(t, "Gate pass approved", hr[0].Title)
	assert.Equal(t, "Gate pass GP-2024-0001 has been approved", hr[0].Message)
}

func TestRejectIsTerminal(t *testing.T) {
	f := newFixture(t)
	pass := f.create(t, true)

	rejected, err := f.svc.Reject(context.Background(), pass.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, enums.GatePassStatusRejected, rejected.Status)
	assert.Nil(t, rejected.ApprovedAt)
	require.NotNil(t, rejected.RejectedAt)
	assertHistoryConsistent(t, rejected)

	_, err = f.svc.Approve(context.Background(), pass.ID, "admin-1")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)
	_, err = f.svc.ScanExit(context.Background(), ScanInput{PassNumber: pass.Number, Photo: testPhoto})
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	var hr []models.Notification
	require.NoError(t, f.client.DB().Where("audience = ?", enums.AudienceHR).Find(&hr).Error)
	require.Len(t, hr, 1)
	assert.Equal(t, "Gate pass GP-2024-0001 has been rejected", hr[0].Message)
}

func TestDecideUnknownPassIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Approve(context.Background(), uuid.New(), "admin-1")
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = f.svc.Reject(context.Background(), uuid.New(), "admin-1")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestConcurrentApproveHasSingleWinner(t *testing.T) {
	f := newFixture(t)
	pass := f.create(t, false)
	const n = 8

	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Approve(context.Background(), pass.ID, fmt.Sprintf("admin-%d", i))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		requireCode(t, err, pkgerrors.CodeInvalidTransition)
	}
	assert.Equal(t, 1, successes)

	reloaded, err := f.svc.Get(context.Background(), pass.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.StatusHistory, 2)
	assertHistoryConsistent(t, reloaded)
}

func TestExitScanNonReturnableCompletes(t *testing.T) {
	f := newFixture(t)
	pass := f.create(t, false)
	_, err := f.svc.Approve(context.Background(), pass.ID, "admin-1")
	require.NoError(t, err)

	exited, err := f.svc.ScanExit(context.Background(), ScanInput{PassNumber: pass.Number, Photo: testPhoto, ScannedBy: "guard-1"})
	require.NoError(t, err)
	assert.Equal(t, enums.GatePassStatusCompleted, exited.Status)
	require.NotNil(t, exited.ExitTime)
	require.NotNil(t, exited.ExitPhotoID)
	assert.Nil(t, exited.ReturnTime)
	assertHistoryConsistent(t, exited)

	var photo models.Photo
	require.NoError(t, f.client.DB().Where("id = ?", *exited.ExitPhotoID).First(&photo).Error)
	assert.Equal(t, enums.PhotoTypeExit, photo.Type)
	assert.Equal(t, pass.ID, photo.GatePassID)
	assert.Equal(t, "guard-1", photo.CapturedBy)

	_, err = f.svc.ScanReturn(context.Background(), ScanInput{PassNumber: pass.Number, Photo: testPhoto})
	requireCode(t, err, pkgerrors.CodeNotReturnable)
}

func TestReturnScanOnNonReturnableAlwaysNotReturnable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.create(t, false)
	approved := f.create(t, false)
	_, err := f.svc.Approve(ctx, approved.ID, "admin-1")
	require.NoError(t, err)
	rejected := f.create(t, false)
	_, err = f.svc.Reject(ctx, rejected.ID, "admin-1")
	require.NoError(t, err)

	for _, pass := range []*models.GatePass{pending, approved, rejected} {
		_, err := f.svc.ScanReturn(ctx, ScanInput{PassNumber: pass.Number, Photo: testPhoto})
		requireCode(t, err, pkgerrors.CodeNotReturnable)
		_, err = f.svc.ScanReturn(ctx, ScanInput{PassNumber: pass.Number})
		requireCode(t, err, pkgerrors.CodeNotReturnable)
	}
}

func TestScanCheckOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pass := f.create(t, true)

	_, err := f.svc.ScanExit(ctx, ScanInput{PassNumber: "GP-2024-9999", Photo: testPhoto})
	requireCode(t, err, pkgerrors.CodeNotFound)

	// status is checked before the photo
	_, err = f.svc.ScanExit(ctx, ScanInput{PassNumber: pass.Number})
	requireCode(t, err, pkgerrors.CodeInvalidTransition)
	_, err = f.svc.ScanReturn(ctx, ScanInput{PassNumber: pass.Number})
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	_, err = f.svc.Approve(ctx, pass.ID, "admin-1")
	require.NoError(t, err)
	_, err = f.svc.ScanExit(ctx, ScanInput{PassNumber: pass.Number})
	requireCode(t, err, pkgerrors.CodePhotoRequired)

	var photos int64
	require.NoError(t, f.client.DB().Model(&models.Photo{}).Count(&photos).Error)
	assert.Zero(t, photos)
}

func TestReturnablePassFullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pass := f.create(t, true)

	approved, err := f.svc.Approve(ctx, pass.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, enums.GatePassStatusApproved, approved.Status)

	f.svc.now = func() time.Time { return testNow.Add(time.Hour) }
	exited, err := f.svc.ScanExit(ctx, ScanInput{PassNumber: pass.Number, Photo: testPhoto, ScannedBy: "guard-1"})
	require.NoError(t, err)
	assert.Equal(t, enums.GatePassStatusPendingReturn, exited.Status)
	require.NotNil(t, exited.ExitPhotoID)
	assert.Nil(t, exited.ReturnPhotoID)

	f.svc.now = func() time.Time { return testNow.Add(5 * time.Hour) }
	returned, err := f.svc.ScanReturn(ctx, ScanInput{PassNumber: pass.Number, Photo: testPhoto, ScannedBy: "guard-2"})
	require.NoError(t, err)
	assert.Equal(t, enums.GatePassStatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnPhotoID)
	require.NotNil(t, returned.ReturnTime)
	assert.Equal(t, *exited.ExitPhotoID, *returned.ExitPhotoID)
	assert.True(t, returned.ExitTime.Equal(testNow.Add(time.Hour)))
	assert.True(t, returned.ReturnTime.Equal(testNow.Add(5*time.Hour)))

	want := []enums.GatePassStatus{
		enums.GatePassStatusPending,
		enums.GatePassStatusApproved,
		enums.GatePassStatusPendingReturn,
		enums.GatePassStatusReturned,
	}
	require.Len(t, returned.StatusHistory, len(want))
	for i, status := range want {
		assert.Equal(t, status, returned.StatusHistory[i].Status)
	}
	assert.Equal(t, "guard-2", returned.StatusHistory[3].ChangedBy)
	assertHistoryConsistent(t, returned)

	_, err = f.svc.ScanReturn(ctx, ScanInput{PassNumber: pass.Number, Photo: testPhoto})
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	// scans do not notify
	assert.Len(t, f.notifications(t), 2)
}

func TestListFiltersAndOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var created []*models.GatePass
	for i := 0; i < 3; i++ {
		at := testNow.Add(time.Duration(i) * time.Minute)
		f.svc.now = func() time.Time { return at }
		created = append(created, f.create(t, false))
	}
	_, err := f.svc.Approve(ctx, created[1].ID, "admin-1")
	require.NoError(t, err)
	f.svc.now = func() time.Time { return testNow.Add(-time.Hour) }
	other, err := f.svc.Create(ctx, CreateInput{PersonName: "b", Description: "c", CreatedBy: "hr-2"})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, created[2].ID, all[0].ID)
	assert.Equal(t, created[1].ID, all[1].ID)
	assert.Equal(t, created[0].ID, all[2].ID)
	assert.Equal(t, other.ID, all[3].ID)
	for _, pass := range all {
		assertHistoryConsistent(t, &pass)
	}

	pending, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	mine, err := f.svc.List(ctx, ListFilter{CreatedBy: "hr-2"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, other.ID, mine[0].ID)

	approved, err := f.svc.List(ctx, ListFilter{Status: enums.GatePassStatusApproved, CreatedBy: "hr-1"})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, created[1].ID, approved[0].ID)

	_, err = f.svc.List(ctx, ListFilter{Status: "archived"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

type failingNotifier struct {
	calls int
}

func (n *failingNotifier) Notify(ctx context.Context, tx *gorm.DB, notice notifications.Notice) error {
	n.calls++
	row := &models.Notification{ID: uuid.New(), Audience: notice.Audience, Title: notice.Title, Message: notice.Message, CreatedAt: testNow}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	return errors.New("delivery channel down")
}

func TestNotificationFailureDoesNotBlockTransition(t *testing.T) {
	notifier := &failingNotifier{}
	f := newFixture(t, withNotifier(notifier))

	pass := f.create(t, false)
	approved, err := f.svc.Approve(context.Background(), pass.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, enums.GatePassStatusApproved, approved.Status)
	assert.Equal(t, 2, notifier.calls)

	// the notifier's partial write is rolled back with its savepoint
	assert.Empty(t, f.notifications(t))
}

func TestCreateSucceedsWhenQRUploadFailsAndOpenQRReissues(t *testing.T) {
	base, err := local.New(t.TempDir())
	require.NoError(t, err)
	blobs := &failingPutStore{BlobStore: base, fail: true}
	qr, err := qrcodes.NewGenerator(blobs, config.QRConfig{SizePx: 64, BaseURL: "/api/v1/qr"})
	require.NoError(t, err)
	f := newFixture(t, withQR(qr))
	ctx := context.Background()

	pass := f.create(t, false)
	assert.Equal(t, "/api/v1/qr/"+pass.Number, pass.QRCodeURL)

	_, err = qr.Open(ctx, pass.Number)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	blobs.setFail(false)
	obj, err := f.svc.OpenQR(ctx, pass.Number)
	require.NoError(t, err)
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, obj.Body.Close())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	_, err = f.svc.OpenQR(ctx, "GP-2030-0001")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateUploadsQRAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pass := f.create(t, true)

	obj, err := f.svc.OpenQR(ctx, pass.Number)
	require.NoError(t, err)
	defer obj.Body.Close()
	assert.Equal(t, "image/png", obj.ContentType)
}
