package service

import (
	"context"
	"sync"
	"time"

	"github.com/campushub/campushub-api/internal/models"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
)

const draftKeyPrefix = "schedule:draft:"

// DraftStore keeps generated schedules until they expire.
type DraftStore interface {
	Save(ctx context.Context, draft models.ScheduleDraft) error
	Get(ctx context.Context, id string) (*models.ScheduleDraft, error)
}

// NewDraftStore prefers the shared cache and falls back to process memory.
func NewDraftStore(cache *CacheService) DraftStore {
	if cache.Enabled() {
		return &cacheDraftStore{cache: cache}
	}
	return newMemoryDraftStore(time.Now)
}

func draftNotFound() error {
	return appErrors.Clone(appErrors.ErrNotFound, "schedule draft not found or expired")
}

type cacheDraftStore struct {
	cache *CacheService
}

func (s *cacheDraftStore) Save(ctx context.Context, draft models.ScheduleDraft) error {
	ttl := time.Until(draft.ExpiresAt)
	if ttl <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "schedule draft already expired")
	}
	if err := s.cache.Set(ctx, draftKeyPrefix+draft.ID, draft, ttl); err != nil {
		return appErrors.Internal(err, "failed to store schedule draft")
	}
	return nil
}

func (s *cacheDraftStore) Get(ctx context.Context, id string) (*models.ScheduleDraft, error) {
	var draft models.ScheduleDraft
	hit, err := s.cache.Get(ctx, draftKeyPrefix+id, &draft)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load schedule draft")
	}
	if !hit {
		return nil, draftNotFound()
	}
	return &draft, nil
}

type memoryDraftStore struct {
	mu    sync.RWMutex
	items map[string]models.ScheduleDraft
	now   func() time.Time
}

func newMemoryDraftStore(now func() time.Time) *memoryDraftStore {
	return &memoryDraftStore{items: make(map[string]models.ScheduleDraft), now: now}
}

func (s *memoryDraftStore) Save(_ context.Context, draft models.ScheduleDraft) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		if !now.Before(item.ExpiresAt) {
			delete(s.items, id)
		}
	}
	s.items[draft.ID] = draft
	return nil
}

func (s *memoryDraftStore) Get(_ context.Context, id string) (*models.ScheduleDraft, error) {
	s.mu.RLock()
	draft, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, draftNotFound()
	}
	if !s.now().Before(draft.ExpiresAt) {
		s.mu.Lock()
		delete(s.items, id)
		s.mu.Unlock()
		return nil, draftNotFound()
	}
	return &draft, nil
}
