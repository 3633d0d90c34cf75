package cache

import (
	"context"
	"encoding/json"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/events"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/maxaizer/jobmatch/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

// SnapshotPrefix prefixes the ids of persisted cache entries in the data repository.
const SnapshotPrefix = "score_cache:"

var (
	ErrCacheCorrupt = errors.New("score cache snapshot is corrupt")
	// ErrInvalidated is returned by Put when the candidate's entry was invalidated after
	// the generation passed to it had been read.
	ErrInvalidated = errors.New("score cache entry was invalidated")
)

type snapshotStore interface {
	Save(ctx context.Context, id string, data []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	Remove(ctx context.Context, id string) error
}

// Entry holds the scores computed for one candidate. ComputedAt is refreshed by every
// write, so freshness applies to the entry as a whole. Generation is the invalidation
// count of the candidate at read time and is never persisted.
type Entry struct {
	Scores     map[string]int `json:"scores"`
	ComputedAt time.Time      `json:"computed_at"`
	Generation uint64         `json:"-"`
}

func (e Entry) ScoreOf(jobID string) (entities.MatchScore, bool) {
	value, ok := e.Scores[jobID]
	if !ok {
		return entities.NoScore(), false
	}
	return entities.Score(value), true
}

type ScoreCache struct {
	memory    *gocache.Cache
	store     snapshotStore
	clock     Clock
	ttl       time.Duration
	retention time.Duration

	mu          sync.Mutex
	generations map[string]uint64
}

func NewScoreCache(store snapshotStore, clock Clock, ttl, retention, cleanupInterval time.Duration) *ScoreCache {
	if retention < ttl {
		retention = ttl
	}
	return &ScoreCache{
		memory:    gocache.New(retention, cleanupInterval),
		store:     store,
		clock:     clock,
		ttl:       ttl,
		retention:   retention,
		generations: make(map[string]uint64),
	}
}

// Subscribe invalidates a candidate's entry whenever their profile changes.
func (c *ScoreCache) Subscribe(bus EventBus.Bus) error {
	return bus.Subscribe(events.ProfileUpdatedTopic, c.onProfileUpdated)
}

func (c *ScoreCache) onProfileUpdated(event events.ProfileUpdated) {
	if err := c.Invalidate(context.Background(), event.CandidateID); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).
			Errorf("failed to invalidate scores of candidate %v: %v", event.CandidateID, err)
		return
	}
	log.Debugf("scores of candidate %v invalidated, reason: %v", event.CandidateID, event.Reason)
}

// Get returns the retained entry of the candidate, fresh or stale. The returned entry
// carries the candidate's generation even on a miss, to be handed back to Put.
func (c *ScoreCache) Get(ctx context.Context, candidateID string) (Entry, bool) {
	c.mu.Lock()
	entry, found := c.lookup(ctx, candidateID)
	entry.Generation = c.generations[candidateID]
	c.mu.Unlock()

	switch {
	case !found:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	case c.IsFresh(entry):
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("stale").Inc()
	}
	return entry, found
}

func (c *ScoreCache) IsFresh(entry Entry) bool {
	return c.clock.Now().Sub(entry.ComputedAt) < c.ttl
}

// Put merges scores into a fresh entry or starts a new one when the old entry is stale.
// Scores computed against an older generation are dropped with ErrInvalidated.
func (c *ScoreCache) Put(ctx context.Context, candidateID string, generation uint64, scores map[string]int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current := c.generations[candidateID]; current != generation {
		return errors.Wrapf(ErrInvalidated, "candidate %v is at generation %v, scores were computed at %v",
			candidateID, current, generation)
	}

	merged := make(map[string]int, len(scores))
	if existing, found := c.lookup(ctx, candidateID); found && c.IsFresh(existing) {
		for jobID, score := range existing.Scores {
			merged[jobID] = score
		}
	}
	for jobID, score := range scores {
		merged[jobID] = score
	}

	entry := Entry{Scores: merged, ComputedAt: c.clock.Now(), Generation: generation}
	c.memory.Set(candidateID, entry, gocache.DefaultExpiration)

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal cache entry")
	}
	if err = c.store.Save(ctx, SnapshotPrefix+candidateID, data); err != nil {
		return errors.Wrapf(err, "persist scores of candidate %v", candidateID)
	}
	return nil
}

func (c *ScoreCache) Invalidate(ctx context.Context, candidateID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[candidateID]++
	c.memory.Delete(candidateID)
	if err := c.store.Remove(ctx, SnapshotPrefix+candidateID); err != nil {
		return errors.Wrapf(err, "remove snapshot of candidate %v", candidateID)
	}
	return nil
}

// lookup must be called with c.mu held.
func (c *ScoreCache) lookup(ctx context.Context, candidateID string) (Entry, bool) {
	if cached, found := c.memory.Get(candidateID); found {
		entry := cached.(Entry)
		if c.isRetained(entry) {
			return entry, true
		}
		c.memory.Delete(candidateID)
		return Entry{}, false
	}

	entry, err := c.loadSnapshot(ctx, candidateID)
	if err != nil {
		if errors.Is(err, ErrCacheCorrupt) {
			metrics.CacheLookups.WithLabelValues("corrupt").Inc()
			if removeErr := c.store.Remove(ctx, SnapshotPrefix+candidateID); removeErr != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).
					Errorf("failed to remove corrupt snapshot of candidate %v: %v", candidateID, removeErr)
			}
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).
			Errorf("failed to load score snapshot of candidate %v: %v", candidateID, err)
		return Entry{}, false
	}
	if entry == nil || !c.isRetained(*entry) {
		return Entry{}, false
	}

	c.memory.Set(candidateID, *entry, c.retention-c.clock.Now().Sub(entry.ComputedAt))
	return *entry, true
}

func (c *ScoreCache) loadSnapshot(ctx context.Context, candidateID string) (*Entry, error) {
	data, err := c.store.Load(ctx, SnapshotPrefix+candidateID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var entry Entry
	if err = json.Unmarshal(data, &entry); err != nil {
		return nil, errors.Wrap(ErrCacheCorrupt, err.Error())
	}
	if entry.Scores == nil || entry.ComputedAt.IsZero() {
		return nil, errors.Wrap(ErrCacheCorrupt, "missing scores or computation time")
	}
	return &entry, nil
}

func (c *ScoreCache) isRetained(entry Entry) bool {
	return c.clock.Now().Sub(entry.ComputedAt) < c.retention
}
