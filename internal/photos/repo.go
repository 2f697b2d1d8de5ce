package photos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gatepass-backend/internal/repo"
	"github.com/angelmondragon/gatepass-backend/pkg/db/models"
)

// Repository persists photo capture records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, photo *models.Photo) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	ListByPassNumber(ctx context.Context, passNumber string) ([]models.Photo, error)
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

func (r *repositoryImpl) Create(ctx context.Context, photo *models.Photo) error {
	return r.DB(ctx).Create(photo).Error
}

// FindByID returns gorm.ErrRecordNotFound when the id is unknown.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	var photo models.Photo
	if err := r.DB(ctx).Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *repositoryImpl) ListByPassNumber(ctx context.Context, passNumber string) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.DB(ctx).
		Where("pass_number = ?", passNumber).
		Order("captured_at DESC, id DESC").
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
