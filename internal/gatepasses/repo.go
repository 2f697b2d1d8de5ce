package gatepasses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gatepass-backend/internal/repo"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
	"github.com/angelmondragon/gatepass-backend/pkg/enums"
)

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Status    enums.GatePassStatus
	CreatedBy string
}

// Repository persists gate passes, their status history and the yearly
// number counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, pass *models.GatePass) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.GatePass, error)
	FindByNumber(ctx context.Context, number string) (*models.GatePass, error)
	List(ctx context.Context, filter ListFilter) ([]models.GatePass, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from enums.GatePassStatus, updates map[string]any) (bool, error)
	AppendHistory(ctx context.Context, event *models.GatePassStatusEvent) error
	NextSequence(ctx context.Context, year int, now time.Time, resync bool) (int, error)
}

type repositoryImpl struct {
	repo.Base
}

// NewRepository binds the repository to a database handle.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	return &repositoryImpl{Base: r.Base.WithTx(tx)}
}

func (r *repositoryImpl) Insert(ctx context.Context, pass *models.GatePass) error {
	// history rows are appended explicitly with a sequence
	return r.DB(ctx).Omit("StatusHistory").Create(pass).Error
}

func withHistory(db *gorm.DB) *gorm.DB {
	return db.Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	})
}

// FindByID returns gorm.ErrRecordNotFound when no pass has the id.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.GatePass, error) {
	var pass models.GatePass
	if err := withHistory(r.DB(ctx)).Where("id = ?", id).First(&pass).Error; err != nil {
		return nil, err
	}
	return &pass, nil
}

// FindByNumber returns gorm.ErrRecordNotFound when no pass has the number.
func (r *repositoryImpl) FindByNumber(ctx context.Context, number string) (*models.GatePass, error) {
	var pass models.GatePass
	if err := withHistory(r.DB(ctx)).Where("number = ?", number).First(&pass).Error; err != nil {
		return nil, err
	}
	return &pass, nil
}

func (r *repositoryImpl) List(ctx context.Context, filter ListFilter) ([]models.GatePass, error) {
	query := withHistory(r.DB(ctx)).Model(&models.GatePass{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	var passes []models.GatePass
	if err := query.Order("created_at DESC, id DESC").Find(&passes).Error; err != nil {
		return nil, err
	}
	return passes, nil
}

// CompareAndSetStatus applies updates only while the pass still holds from.
// It reports false when no row matched.
func (r *repositoryImpl) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from enums.GatePassStatus, updates map[string]any) (bool, error) {
	result := r.DB(ctx).
		Model(&models.GatePass{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AppendHistory assigns the next per-pass sequence and inserts the entry.
func (r *repositoryImpl) AppendHistory(ctx context.Context, event *models.GatePassStatusEvent) error {
	if event.GatePassID == uuid.Nil {
		return errors.New("gate pass id required")
	}
	var last int
	err := r.DB(ctx).
		Model(&models.GatePassStatusEvent{}).
		Where("gate_pass_id = ?", event.GatePassID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error
	if err != nil {
		return fmt.Errorf("read history sequence: %w", err)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Sequence = last + 1
	return r.DB(ctx).Create(event).Error
}
