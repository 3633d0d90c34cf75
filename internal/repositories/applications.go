package repositories

import (
	"context"
	sq "github.com/Masterminds/squirrel"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"strings"
	"time"
)

type Applications struct {
	db *gorm.DB
}

func NewApplicationsRepository(db *gorm.DB) *Applications {
	return &Applications{db: db}
}

// Create inserts the application. A second application for the same job and candidate
// fails with entities.ErrDuplicateApplication; the check is the unique index, so
// concurrent inserts are covered too.
func (repo *Applications) Create(ctx context.Context, application *entities.Application) error {
	err := repo.db.WithContext(ctx).Create(application).Error
	if isUniqueViolation(err) {
		return entities.ErrDuplicateApplication
	}
	return err
}

func (repo *Applications) Exists(ctx context.Context, jobID, candidateID string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.Application{}).
		Where("job_id = ? AND candidate_id = ?", jobID, candidateID).
		Count(&count).Error
	return count > 0, err
}

func (repo *Applications) GetByID(ctx context.Context, id string) (*entities.Application, error) {
	var application entities.Application
	if err := repo.db.WithContext(ctx).First(&application, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

func (repo *Applications) ListByCandidate(ctx context.Context, candidateID string) ([]entities.Application, error) {
	var applications []entities.Application
	if err := repo.db.WithContext(ctx).Where("candidate_id = ?", candidateID).
		Order("created_at DESC").Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// ListUnscored returns applications whose background scoring never succeeded, oldest first.
func (repo *Applications) ListUnscored(ctx context.Context, limit int) ([]entities.Application, error) {
	var applications []entities.Application
	query := repo.db.WithContext(ctx).Where("scored_at IS NULL").Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// Search is the admin listing: best matches first, filters applied only when set.
// A non-nil empty JobIDs matches nothing.
func (repo *Applications) Search(ctx context.Context, filter entities.ApplicationFilter) ([]entities.Application, error) {

	query := sq.Select("*").From("applications")

	if filter.JobIDs != nil {
		query = query.Where(sq.Eq{"job_id": filter.JobIDs})
	}
	if filter.Status != "" {
		query = query.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.MinScore > 0 {
		query = query.Where(sq.GtOrEq{"match_score": filter.MinScore})
	}

	query = query.OrderBy("match_score DESC", "created_at ASC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build applications query")
	}

	var applications []entities.Application
	if err = repo.db.WithContext(ctx).Raw(sql, args...).Scan(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// UpdateMatchScore writes only the score columns so a concurrent status change by a
// reviewer is never overwritten.
func (repo *Applications) UpdateMatchScore(ctx context.Context, id string, score int, scoredAt time.Time) error {
	res := repo.db.WithContext(ctx).Model(&entities.Application{}).Where("id = ?", id).
		Updates(map[string]any{
			"match_score": score,
			"scored_at":   scoredAt.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entities.ErrApplicationNotFound
	}
	return nil
}

func (repo *Applications) UpdateStatus(ctx context.Context, id string, status entities.ApplicationStatus) error {
	res := repo.db.WithContext(ctx).Model(&entities.Application{}).Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return entities.ErrApplicationNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
