package services

import (
	"context"
	"github.com/maxaizer/jobmatch/internal/cache"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"time"
)

type snapshotCleanupRepository interface {
	RemoveOlderThan(ctx context.Context, prefix string, before time.Time) (int64, error)
}

// CacheCleaner periodically removes persisted score snapshots that fell out of the
// retention window.
type CacheCleaner struct {
	snapshots snapshotCleanupRepository
	cron      *cron.Cron
	retention time.Duration
}

func NewCacheCleaner(snapshots snapshotCleanupRepository, retention time.Duration, schedule string) (*CacheCleaner, error) {

	if retention <= 0 {
		return nil, errors.New("retention must be greater than zero")
	}

	cc := &CacheCleaner{
		snapshots: snapshots,
		cron:      cron.New(),
		retention: retention,
	}

	_, err := cc.cron.AddFunc(schedule, cc.cleanExpiredSnapshots)
	if err != nil {
		return nil, errors.Wrap(err, "schedule cache cleanup")
	}

	cc.cron.Start()
	log.Infof("score cache cleaner started, retention: %v, schedule: %v", cc.retention, schedule)
	return cc, nil
}

func (cc *CacheCleaner) Stop() {
	<-cc.cron.Stop().Done()
}

func (cc *CacheCleaner) cleanExpiredSnapshots() {
	expirationTime := time.Now().Add(-cc.retention)
	rowsAffected, err := cc.snapshots.RemoveOlderThan(context.Background(), cache.SnapshotPrefix, expirationTime)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).Errorf("failed to clean score snapshots: %v", err)
	} else {
		log.Infof("expired score snapshots were cleaned at %v, affected rows: %v", time.Now(), rowsAffected)
	}
}
