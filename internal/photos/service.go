package photos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gatepass-backend/pkg/errors"
	"github.com/angelmondragon/gatepass-backend/pkg/logger"
	"github.com/angelmondragon/gatepass-backend/pkg/storage"
)

// CaptureInput describes a single exit or return photo.
type CaptureInput struct {
	GatePassID uuid.UUID
	PassNumber string
	Type       enums.PhotoType
	Data       []byte
	CapturedBy string
}

// Opened is a photo record plus its blob stream. Callers close Body.
type Opened struct {
	Photo  *models.Photo
	Object *storage.Object
}

// Service records photo captures. Every capture is kept; attaching the
// latest id to a pass is the caller's job.
type Service struct {
	repo     Repository
	store    storage.BlobStore
	maxBytes int64
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the photo linkage service.
func NewService(repo Repository, store storage.BlobStore, maxBytes int64, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "photo repository required")
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "blob store required")
	}
	return &Service{
		repo:     repo,
		store:    store,
		maxBytes: maxBytes,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// StorageKey is the blob key of a photo.
func StorageKey(id uuid.UUID, ext string) string {
	return "photos/" + id.String() + ext
}

// Capture validates and stores the photo bytes, then records the Photo row.
func (s *Service) Capture(ctx context.Context, in CaptureInput) (*models.Photo, error) {
	if len(in.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodePhotoRequired, "photo required")
	}
	if strings.TrimSpace(in.PassNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pass number required")
	}
	if !in.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid photo type")
	}
	if s.maxBytes > 0 && int64(len(in.Data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo exceeds maximum upload size").
			WithDetails(map[string]any{"maxBytes": s.maxBytes, "sizeBytes": len(in.Data)})
	}
	contentType, ext, ok := detectImage(in.Data)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported photo type").
			WithDetails(map[string]any{"contentType": contentType, "allowed": allowedTypesDescription()})
	}

	photo := &models.Photo{
		ID:          uuid.New(),
		GatePassID:  in.GatePassID,
		PassNumber:  in.PassNumber,
		Type:        in.Type,
		ContentType: contentType,
		SizeBytes:   int64(len(in.Data)),
		CapturedAt:  s.now(),
		CapturedBy:  in.CapturedBy,
	}
	photo.StorageKey = StorageKey(photo.ID, ext)

	if err := s.store.Put(ctx, photo.StorageKey, in.Data, contentType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store photo")
	}
	if err := s.repo.Create(ctx, photo); err != nil {
		if delErr := s.store.Delete(ctx, photo.StorageKey); delErr != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "storage_key", photo.StorageKey), "orphaned photo blob: "+delErr.Error())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record photo")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"photo_id":    photo.ID.String(),
			"pass_number": photo.PassNumber,
			"photo_type":  string(photo.Type),
		})
		s.logg.Info(logCtx, "photo captured")
	}
	return photo, nil
}

// ListByPassNumber returns every capture for a pass, newest first.
func (s *Service) ListByPassNumber(ctx context.Context, passNumber string) ([]models.Photo, error) {
	if strings.TrimSpace(passNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pass number required")
	}
	photos, err := s.repo.ListByPassNumber(ctx, passNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos")
	}
	return photos, nil
}

// Open loads the photo record and streams its blob.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (*Opened, error) {
	photo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photo")
	}
	obj, err := s.store.Open(ctx, photo.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photo blob not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open photo")
	}
	if photo.ContentType != "" {
		obj.ContentType = photo.ContentType
	}
	return &Opened{Photo: photo, Object: obj}, nil
}
