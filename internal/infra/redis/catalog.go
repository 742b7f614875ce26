package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizforge/internal/domain"
)

// CatalogLoader fetches quiz content and the leaderboard seed from a backing
// store (e.g., Postgres).
type CatalogLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadSeedEntries(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error)
}

// Catalog caches catalog documents in Redis and falls back to a loader on
// cache miss. The session needs complete questions to grade every answer
// type, so whole documents are cached:
//
//	SET catalog:{quizID}:quiz {quiz JSON}
//	SET catalog:{quizID}:seed {seed entries JSON}
type Catalog struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalog(client *redis.Client, loader CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	if ok := c.readCached(ctx, c.quizKey(quizID), &quiz); ok {
		return quiz, nil
	}
	quiz, _, err := c.loadAndCache(ctx, quizID)
	return quiz, err
}

func (c *Catalog) GetSeedEntries(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error) {
	var seed []domain.LeaderboardEntry
	if ok := c.readCached(ctx, c.seedKey(quizID), &seed); ok {
		return seed, nil
	}
	_, seed, err := c.loadAndCache(ctx, quizID)
	return seed, err
}

type catalogDocs struct {
	quiz domain.Quiz
	seed []domain.LeaderboardEntry
}

func (c *Catalog) loadAndCache(ctx context.Context, quizID string) (domain.Quiz, []domain.LeaderboardEntry, error) {
	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var quiz domain.Quiz
		if ok := c.readCached(ctx, c.quizKey(quizID), &quiz); ok {
			var seed []domain.LeaderboardEntry
			c.readCached(ctx, c.seedKey(quizID), &seed)
			return catalogDocs{quiz: quiz, seed: seed}, nil
		}

		quiz, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return catalogDocs{}, err
		}
		seed, err := c.loader.LoadSeedEntries(ctx, quizID)
		if err != nil {
			return catalogDocs{}, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		if quizJSON, err := json.Marshal(quiz); err == nil {
			pipe.Set(ctx, c.quizKey(quizID), quizJSON, ttl)
		}
		if seedJSON, err := json.Marshal(seed); err == nil {
			pipe.Set(ctx, c.seedKey(quizID), seedJSON, ttl)
		}
		// Cache writes are best-effort; the loader result is authoritative.
		_, _ = pipe.Exec(ctx)

		return catalogDocs{quiz: quiz, seed: seed}, nil
	})
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	docs := result.(catalogDocs)
	return docs.quiz, docs.seed, nil
}

func (c *Catalog) readCached(ctx context.Context, key string, dst interface{}) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *Catalog) quizKey(quizID string) string {
	return fmt.Sprintf("catalog:%s:quiz", quizID)
}

func (c *Catalog) seedKey(quizID string) string {
	return fmt.Sprintf("catalog:%s:seed", quizID)
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
