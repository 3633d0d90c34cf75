package repositories

import (
	"context"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"time"
)

type Data struct {
	db *gorm.DB
}

func NewDataRepository(db *gorm.DB) *Data {
	return &Data{db: db}
}

func (repo *Data) Save(ctx context.Context, id string, data []byte) error {
	return repo.db.WithContext(ctx).Save(&entities.ArbitraryData{
		ID:    id,
		Value: data,
	}).Error
}

func (repo *Data) Load(ctx context.Context, id string) ([]byte, error) {
	data := &entities.ArbitraryData{}
	err := repo.db.WithContext(ctx).First(data, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return data.Value, nil
}

func (repo *Data) Remove(ctx context.Context, id string) error {
	return repo.db.WithContext(ctx).Delete(&entities.ArbitraryData{}, "id = ?", id).Error
}

// RemoveOlderThan deletes entries under prefix that were not written since before.
func (repo *Data) RemoveOlderThan(ctx context.Context, prefix string, before time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).
		Where("substr(id, 1, ?) = ? AND updated_at < ?", len(prefix), prefix, before).
		Delete(&entities.ArbitraryData{})
	return res.RowsAffected, res.Error
}
