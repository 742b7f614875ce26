package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizforge/internal/domain"
)

// CatalogLoader fetches quiz content and the leaderboard seed from a backing
// store (e.g., Postgres).
type CatalogLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadSeedEntries(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error)
}

// Catalog caches catalog reads with TTL to avoid repeated backing-store hits.
type Catalog struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	quiz      domain.Quiz
	seed      []domain.LeaderboardEntry
	expiresAt time.Time
}

func NewCatalog(loader CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedEntry),
	}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	entry, err := c.get(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return entry.quiz, nil
}

func (c *Catalog) GetSeedEntries(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error) {
	entry, err := c.get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return entry.seed, nil
}

func (c *Catalog) get(ctx context.Context, quizID string) (cachedEntry, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry, nil
		}
		c.mu.RUnlock()

		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return cachedEntry{}, err
		}
		seed, err := c.loader.LoadSeedEntries(ctx, quizID)
		if err != nil {
			return cachedEntry{}, err
		}

		entry := cachedEntry{
			quiz:      quiz,
			seed:      seed,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Lock()
		c.cache[quizID] = entry
		c.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return cachedEntry{}, err
	}
	return result.(cachedEntry), nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticLoader is a simple loader backed by in-memory maps (useful for
// tests/demos and as the no-database fallback).
type StaticLoader struct {
	quizzes map[string]domain.Quiz
	seeds   map[string][]domain.LeaderboardEntry
}

func NewStaticLoader(quizzes map[string]domain.Quiz, seeds map[string][]domain.LeaderboardEntry) *StaticLoader {
	return &StaticLoader{quizzes: quizzes, seeds: seeds}
}

func (l *StaticLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *StaticLoader) LoadSeedEntries(_ context.Context, quizID string) ([]domain.LeaderboardEntry, error) {
	return l.seeds[quizID], nil
}
