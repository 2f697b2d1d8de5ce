package gatepasses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gatepass-backend/internal/notifications"
	"github.com/angelmondragon/gatepass-backend/internal/photos"
	"github.com/angelmondragon/gatepass-backend/pkg/config"
	"github.com/angelmondragon/gatepass-backend/pkg/db"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/metrics"
	"github.com/angelmondragon/gatepass-backend/pkg/storage"
)

const (
	maxPersonNameLength  = 200
	maxDescriptionLength = 2000
)

var errDuplicateNumber = pkgerrors.New(pkgerrors.CodeDuplicateNumber, "pass number already allocated")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// QREncoder renders pass numbers and keeps their images in the blob store.
type QREncoder interface {
	Render(passNumber string) ([]byte, error)
	Store(ctx context.Context, passNumber string, png []byte) error
	Open(ctx context.Context, passNumber string) (*storage.Object, error)
	URL(passNumber string) string
}

// PhotoCapturer stores a scan photo and returns its record.
type PhotoCapturer interface {
	Capture(ctx context.Context, in photos.CaptureInput) (*models.Photo, error)
}

// Notifier delivers a notice using the transition's transaction.
type Notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, notice notifications.Notice) error
}

// ServiceParams wires the lifecycle engine.
type ServiceParams struct {
	DB         txRunner
	Repository Repository
	Photos     PhotoCapturer
	QR         QREncoder
	Notifier   Notifier
	Config     config.LifecycleConfig
	Logger     *logger.Logger
	Metrics    *metrics.LifecycleMetrics
}

// Service applies gate pass lifecycle transitions.
type Service struct {
	db          txRunner
	repo        Repository
	photos      PhotoCapturer
	qr          QREncoder
	notifier    Notifier
	prefix      string
	loc         *time.Location
	maxAttempts int
	logg        *logger.Logger
	metrics     *metrics.LifecycleMetrics
	now         func() time.Time
}

// CreateInput carries the fields of a new pass request.
type CreateInput struct {
	PersonName   string
	Description  string
	IsReturnable bool
	CreatedBy    string
}

// ScanInput carries a gate scan. Photo holds the raw image bytes.
type ScanInput struct {
	PassNumber string
	Photo      []byte
	ScannedBy  string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("gate pass repository required")
	}
	if params.Photos == nil {
		return nil, fmt.Errorf("photo capturer required")
	}
	if params.QR == nil {
		return nil, fmt.Errorf("qr encoder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc, err := params.Config.Location()
	if err != nil {
		return nil, err
	}
	attempts := params.Config.AllocationMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Service{
		db:          params.DB,
		repo:        params.Repository,
		photos:      params.Photos,
		qr:          params.QR,
		notifier:    params.Notifier,
		prefix:      params.Config.NumberPrefix,
		loc:         loc,
		maxAttempts: attempts,
		logg:        params.Logger,
		metrics:     params.Metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create allocates a number and stores the pending pass with its first
// history entry in one transaction. The QR image is rendered inside the
// transaction and uploaded once it commits.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.GatePass, error) {
	in.PersonName = strings.TrimSpace(in.PersonName)
	in.Description = strings.TrimSpace(in.Description)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := s.now()
	year := now.In(s.loc).Year()

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			s.metrics.IncAllocationRetry()
		}
		created, png, err := s.createOnce(ctx, in, now, year, attempt > 0)
		if err == nil {
			s.metrics.ObserveTransition(string(TransitionCreate), metrics.OutcomeApplied)
			logCtx := s.logg.WithGatePass(ctx, created.ID.String(), created.Number)
			if storeErr := s.qr.Store(ctx, created.Number, png); storeErr != nil {
				// OpenQR re-renders a missing image on first read
				s.logg.Warn(s.logg.WithField(logCtx, "error", storeErr.Error()), "qr upload failed after create")
			}
			s.logg.Info(logCtx, "gate pass created")
			return created, nil
		}
		if !errors.Is(err, errDuplicateNumber) {
			s.metrics.ObserveTransition(string(TransitionCreate), metrics.OutcomeFailed)
			return nil, err
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt+1), "pass number conflict; retrying allocation")
	}

	s.metrics.IncAllocationExhausted()
	s.metrics.ObserveTransition(string(TransitionCreate), metrics.OutcomeFailed)
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a pass number").
		WithDetails(map[string]any{"attempts": s.maxAttempts})
}

func (s *Service) createOnce(ctx context.Context, in CreateInput, now time.Time, year int, resync bool) (*models.GatePass, []byte, error) {
	var (
		created *models.GatePass
		png     []byte
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		seq, err := repo.NextSequence(ctx, year, now, resync)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate pass number")
		}
		number := FormatNumber(s.prefix, year, seq)

		png, err = s.qr.Render(number)
		if err != nil {
			return err
		}

		pass := &models.GatePass{
			ID:           uuid.New(),
			Number:       number,
			NumberYear:   year,
			NumberSeq:    seq,
			PersonName:   in.PersonName,
			Description:  in.Description,
			CreatedBy:    in.CreatedBy,
			IsReturnable: in.IsReturnable,
			Status:       enums.GatePassStatusPending,
			QRCodeURL:    s.qr.URL(number),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repo.Insert(ctx, pass); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errDuplicateNumber
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert gate pass")
		}
		if err := repo.AppendHistory(ctx, historyEntry(pass.ID, enums.GatePassStatusPending, now, in.CreatedBy)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		s.notify(ctx, tx, TransitionCreate, pass)

		created, err = repo.FindByID(ctx, pass.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload gate pass")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, png, nil
}

// OpenQR streams the QR image of an existing pass, re-issuing it when the
// upload after create was lost.
func (s *Service) OpenQR(ctx context.Context, passNumber string) (*storage.Object, error) {
	pass, err := s.GetByNumber(ctx, passNumber)
	if err != nil {
		return nil, err
	}
	obj, err := s.qr.Open(ctx, pass.Number)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		return obj, err
	}

	png, err := s.qr.Render(pass.Number)
	if err != nil {
		return nil, err
	}
	if err := s.qr.Store(ctx, pass.Number, png); err != nil {
		return nil, err
	}
	logCtx := s.logg.WithGatePass(ctx, pass.ID.String(), pass.Number)
	s.logg.Info(logCtx, "qr image re-issued")
	return s.qr.Open(ctx, pass.Number)
}

// Get loads a pass by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.GatePass, error) {
	pass, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return pass, nil
}

// GetByNumber loads a pass by its pass number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*models.GatePass, error) {
	number = normalizeNumber(number)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gate pass not found")
	}
	pass, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, lookupError(err)
	}
	return pass, nil
}

// List returns passes matching filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.GatePass, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	passes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list gate passes")
	}
	if passes == nil {
		passes = []models.GatePass{}
	}
	return passes, nil
}

// ListPending is the admin approval queue.
func (s *Service) ListPending(ctx context.Context) ([]models.GatePass, error) {
	return s.List(ctx, ListFilter{Status: enums.GatePassStatusPending})
}

// Approve moves a pending pass to approved and stamps approvedAt.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor string) (*models.GatePass, error) {
	return s.decide(ctx, id, TransitionApprove, actor)
}

// Reject moves a pending pass to rejected.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor string) (*models.GatePass, error) {
	return s.decide(ctx, id, TransitionReject, actor)
}

func (s *Service) decide(ctx context.Context, id uuid.UUID, t Transition, actor string) (*models.GatePass, error) {
	var updated *models.GatePass
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return lookupError(err)
		}
		next, err := NextStatus(t, current.Status, current.IsReturnable)
		if err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{"status": next, "updated_at": now}
		switch t {
		case TransitionApprove:
			updates["approved_at"] = now
		case TransitionReject:
			updates["rejected_at"] = now
		}

		updated, err = s.apply(ctx, tx, current, t, next, updates, now, actor)
		return err
	})
	return s.finish(ctx, t, updated, err)
}

// ScanExit records the exit photo and moves an approved pass to
// pending_return or completed depending on isReturnable.
func (s *Service) ScanExit(ctx context.Context, in ScanInput) (*models.GatePass, error) {
	return s.scan(ctx, TransitionExitScan, in)
}

// ScanReturn records the return photo and moves a pending_return pass to returned.
func (s *Service) ScanReturn(ctx context.Context, in ScanInput) (*models.GatePass, error) {
	return s.scan(ctx, TransitionReturnScan, in)
}

func (s *Service) scan(ctx context.Context, t Transition, in ScanInput) (*models.GatePass, error) {
	current, err := s.GetByNumber(ctx, in.PassNumber)
	if err != nil {
		s.metrics.ObserveTransition(string(t), metrics.OutcomeRejected)
		return nil, err
	}
	logCtx := s.logg.WithGatePass(ctx, current.ID.String(), current.Number)

	if t == TransitionReturnScan && !current.IsReturnable {
		s.metrics.ObserveTransition(string(t), metrics.OutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeNotReturnable, "gate pass is not returnable").
			WithDetails(map[string]any{"passNumber": current.Number})
	}
	next, err := NextStatus(t, current.Status, current.IsReturnable)
	if err != nil {
		s.metrics.ObserveTransition(string(t), metrics.OutcomeRejected)
		return nil, err
	}
	if len(in.Photo) == 0 {
		s.metrics.ObserveTransition(string(t), metrics.OutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodePhotoRequired, "photo required")
	}

	photoType := enums.PhotoTypeExit
	if t == TransitionReturnScan {
		photoType = enums.PhotoTypeReturn
	}
	photo, err := s.photos.Capture(logCtx, photos.CaptureInput{
		GatePassID: current.ID,
		PassNumber: current.Number,
		Type:       photoType,
		Data:       in.Photo,
		CapturedBy: in.ScannedBy,
	})
	if err != nil {
		s.metrics.ObserveTransition(string(t), metrics.OutcomeFailed)
		return nil, err
	}

	var updated *models.GatePass
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now()
		updates := map[string]any{"status": next, "updated_at": now}
		if t == TransitionExitScan {
			updates["exit_time"] = now
			updates["exit_photo_id"] = photo.ID
		} else {
			updates["return_time"] = now
			updates["return_photo_id"] = photo.ID
		}
		var applyErr error
		updated, applyErr = s.apply(ctx, tx, current, t, next, updates, now, in.ScannedBy)
		return applyErr
	})
	return s.finish(ctx, t, updated, err)
}

// apply performs the conditional status write, the history append and the
// notification inside tx, then reloads the pass.
func (s *Service) apply(ctx context.Context, tx *gorm.DB, current *models.GatePass, t Transition, next enums.GatePassStatus, updates map[string]any, now time.Time, actor string) (*models.GatePass, error) {
	repo := s.repo.WithTx(tx)
	ok, err := repo.CompareAndSetStatus(ctx, current.ID, current.Status, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update gate pass status")
	}
	if !ok {
		// a concurrent transition won; report what the pass holds now
		latest, findErr := repo.FindByID(ctx, current.ID)
		if findErr != nil {
			return nil, lookupError(findErr)
		}
		return nil, invalidTransition(t, latest.Status)
	}
	if err := repo.AppendHistory(ctx, historyEntry(current.ID, next, now, actor)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}

	s.notify(ctx, tx, t, current)

	updated, err := repo.FindByID(ctx, current.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload gate pass")
	}
	return updated, nil
}

func (s *Service) finish(ctx context.Context, t Transition, updated *models.GatePass, err error) (*models.GatePass, error) {
	if err != nil {
		outcome := metrics.OutcomeFailed
		if pkgerrors.Is(err, pkgerrors.CodeInvalidTransition) || pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			outcome = metrics.OutcomeRejected
		}
		s.metrics.ObserveTransition(string(t), outcome)
		return nil, err
	}
	s.metrics.ObserveTransition(string(t), metrics.OutcomeApplied)
	logCtx := s.logg.WithGatePass(ctx, updated.ID.String(), updated.Number)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"transition": string(t),
		"status":     string(updated.Status),
	})
	s.logg.Info(logCtx, "gate pass transition applied")
	return updated, nil
}

func historyEntry(passID uuid.UUID, status enums.GatePassStatus, at time.Time, actor string) *models.GatePassStatusEvent {
	return &models.GatePassStatusEvent{
		GatePassID: passID,
		Status:     status,
		ChangedAt:  at,
		ChangedBy:  actor,
	}
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "gate pass not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gate pass")
}

func validateCreate(in CreateInput) error {
	fields := map[string]string{}
	if in.PersonName == "" {
		fields["personName"] = "required"
	} else if len(in.PersonName) > maxPersonNameLength {
		fields["personName"] = fmt.Sprintf("must be at most %d characters", maxPersonNameLength)
	}
	if in.Description == "" {
		fields["description"] = "required"
	} else if len(in.Description) > maxDescriptionLength {
		fields["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLength)
	}
	if in.CreatedBy == "" {
		fields["createdBy"] = "required"
	}
	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid gate pass request").WithDetails(fields)
	}
	return nil
}
