package repositories

import (
	"context"
	"errors"
	"github.com/maxaizer/jobmatch/internal/entities"
	"gorm.io/gorm"
)

type Profiles struct {
	db *gorm.DB
}

func NewProfilesRepository(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

// Get returns nil without an error when the candidate has no profile yet.
func (repo *Profiles) Get(ctx context.Context, candidateID string) (*entities.Profile, error) {
	var profile entities.Profile
	if err := repo.db.WithContext(ctx).First(&profile, "candidate_id = ?", candidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (repo *Profiles) Save(ctx context.Context, profile entities.Profile) error {
	return repo.db.WithContext(ctx).Save(&profile).Error
}

// ListWithResumes returns profiles that have a resume, most recently updated first.
func (repo *Profiles) ListWithResumes(ctx context.Context) ([]entities.Profile, error) {
	var profiles []entities.Profile
	err := repo.db.WithContext(ctx).
		Where("resume_url <> ''").
		Order("updated_at DESC").
		Find(&profiles).Error
	return profiles, err
}
