package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smarvasti/haftify/internal/domain"
	"github.com/smarvasti/haftify/internal/quiz"
)

// ProgressStore keeps per-question progress as a Redis hash and the rollup as
// a plain key, optionally writing through to a persistent inner store:
//
//	HSET progress:{userID}:{catalogID} {questionID} {json}
//	SET  rollup:{userID}:{catalogID}   {json}
//
// With no inner store Redis is the store of record (TTL disabled is advised
// in that setup).
type ProgressStore struct {
	client *redis.Client
	inner  quiz.ProgressRepository
	ttl    time.Duration
}

func NewProgressStore(client *redis.Client, inner quiz.ProgressRepository, ttl time.Duration) *ProgressStore {
	return &ProgressStore{client: client, inner: inner, ttl: ttl}
}

func (s *ProgressStore) LoadCatalogProgress(ctx context.Context, userID, catalogID string) (domain.ProgressSet, error) {
	key := s.progressKey(userID, catalogID)

	raw, err := s.client.HGetAll(ctx, key).Result()
	if err == nil && len(raw) > 0 {
		progress := make(domain.ProgressSet, len(raw))
		for questionID, doc := range raw {
			var p domain.Progress
			if err := json.Unmarshal([]byte(doc), &p); err != nil {
				continue
			}
			progress[questionID] = p
		}
		return progress, nil
	}

	if s.inner == nil {
		if err != nil {
			return nil, fmt.Errorf("load progress from redis: %w", err)
		}
		return make(domain.ProgressSet), nil
	}

	progress, err := s.inner.LoadCatalogProgress(ctx, userID, catalogID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, progress)
	return progress, nil
}

func (s *ProgressStore) SaveProgress(ctx context.Context, userID, catalogID string, p domain.Progress) error {
	if s.inner != nil {
		if err := s.inner.SaveProgress(ctx, userID, catalogID, p); err != nil {
			return err
		}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	key := s.progressKey(userID, catalogID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, p.QuestionID, raw)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		if s.inner != nil {
			// Cache write failure is tolerable; the inner store has the record.
			return nil
		}
		return fmt.Errorf("save progress to redis: %w", err)
	}
	return nil
}

func (s *ProgressStore) ResetProgress(ctx context.Context, userID, catalogID string) error {
	if s.inner != nil {
		if err := s.inner.ResetProgress(ctx, userID, catalogID); err != nil {
			return err
		}
	}
	if err := s.client.Del(ctx, s.progressKey(userID, catalogID)).Err(); err != nil && s.inner == nil {
		return fmt.Errorf("reset progress in redis: %w", err)
	}
	return nil
}

func (s *ProgressStore) UpdateCatalogRollup(ctx context.Context, userID, catalogID string, r domain.Rollup) error {
	if s.inner != nil {
		if err := s.inner.UpdateCatalogRollup(ctx, userID, catalogID, r); err != nil {
			return err
		}
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal rollup: %w", err)
	}
	if err := s.client.Set(ctx, s.rollupKey(userID, catalogID), raw, s.ttl).Err(); err != nil && s.inner == nil {
		return fmt.Errorf("save rollup to redis: %w", err)
	}
	return nil
}

func (s *ProgressStore) fill(ctx context.Context, key string, progress domain.ProgressSet) {
	if len(progress) == 0 {
		return
	}
	pipe := s.client.Pipeline()
	for questionID, p := range progress {
		raw, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.HSet(ctx, key, questionID, raw)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (s *ProgressStore) progressKey(userID, catalogID string) string {
	return "progress:" + userID + ":" + catalogID
}

func (s *ProgressStore) rollupKey(userID, catalogID string) string {
	return "rollup:" + userID + ":" + catalogID
}
