package cases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines data access for cases.
type Repository interface {
	Create(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Update(ctx context.Context, c *Case) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter CaseFilter) ([]*Case, error)
}

// GormRepository implements Repository using gorm.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new gorm-backed case repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, c *Case) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	var c Case
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

func (r *GormRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Case{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check case existence: %w", err)
	}
	return count > 0, nil
}

func (r *GormRepository) Update(ctx context.Context, c *Case) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&Case{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	return nil
}

func (r *GormRepository) List(ctx context.Context, filter CaseFilter) ([]*Case, error) {
	query := r.db.WithContext(ctx).Model(&Case{})
	if filter.Closed != nil {
		query = query.Where("closed = ?", *filter.Closed)
	}
	if filter.VehiclePlate != nil {
		query = query.Where("vehicle_plate = ?", *filter.VehiclePlate)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var out []*Case
	if err := query.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return out, nil
}
