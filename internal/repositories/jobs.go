package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/jobmatch/internal/entities"
	"gorm.io/gorm"
)

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

func (repo *Jobs) Add(ctx context.Context, job entities.Job) error {
	return repo.db.WithContext(ctx).Create(&job).Error
}

// List returns every visible job, newest first.
func (repo *Jobs) List(ctx context.Context) ([]entities.Job, error) {
	var jobs []entities.Job
	if err := repo.db.WithContext(ctx).Order("created_at DESC").Order("id").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (repo *Jobs) ListPostedBy(ctx context.Context, userID string) ([]entities.Job, error) {
	var jobs []entities.Job
	if err := repo.db.WithContext(ctx).Where("posted_by = ?", userID).
		Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetByID returns nil without an error when the job does not exist.
func (repo *Jobs) GetByID(ctx context.Context, id string) (*entities.Job, error) {
	var job entities.Job
	if err := repo.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (repo *Jobs) GetByIDs(ctx context.Context, ids []string) ([]entities.Job, error) {
	var jobs []entities.Job
	if len(ids) == 0 {
		return jobs, nil
	}
	if err := repo.db.WithContext(ctx).Where("id IN ?", ids).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
