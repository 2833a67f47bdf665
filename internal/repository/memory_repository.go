package repository

import (
	"context"
	"sync"
	"time"

	"github.com/gitcordhq/gitcord/pkg/domain"
)

// memoryRepo is the reference in-memory backend. A single RWMutex guards the
// whole map; mutation helpers copy records out so callers never alias shared
// slices.
type memoryRepo struct {
	mu   sync.RWMutex
	subs map[string]*domain.Subscription
	now  func() time.Time
}

func NewMemoryRepository() SubscriptionRepository {
	return &memoryRepo{
		subs: make(map[string]*domain.Subscription),
		now:  time.Now,
	}
}

func (r *memoryRepo) getOrCreateLocked(channelID string) *domain.Subscription {
	if sub, ok := r.subs[channelID]; ok {
		return sub
	}
	sub := &domain.Subscription{ChannelID: channelID, CreatedAt: r.now().UTC()}
	r.subs[channelID] = sub
	return sub
}

func (r *memoryRepo) UpsertRepo(ctx context.Context, channelID, repo string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := r.getOrCreateLocked(channelID)
	if !sub.HasRepo(repo) {
		sub.Repos = append(sub.Repos, repo)
	}
	sub.UpdatedAt = r.now().UTC()
	return copySub(sub), nil
}

func (r *memoryRepo) MergeEvents(ctx context.Context, channelID string, events []string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub := r.getOrCreateLocked(channelID)
	sub.Events = mergeEventList(sub.Events, events)
	sub.UpdatedAt = r.now().UTC()
	return copySub(sub), nil
}

func (r *memoryRepo) RemoveRepo(ctx context.Context, channelID, repo string) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	sub.Repos = removeAll(sub.Repos, repo)
	sub.UpdatedAt = r.now().UTC()
	return copySub(sub), nil
}

func (r *memoryRepo) Remove(ctx context.Context, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[channelID]; !ok {
		return ErrNotFound
	}
	delete(r.subs, channelID)
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, channelID string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	return copySub(sub), nil
}

func (r *memoryRepo) ListAll(ctx context.Context) (map[string]domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domain.Subscription, len(r.subs))
	for id, sub := range r.subs {
		out[id] = *copySub(sub)
	}
	return out, nil
}

func (r *memoryRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs), nil
}

func copySub(sub *domain.Subscription) *domain.Subscription {
	cp := *sub
	cp.Repos = append([]string(nil), sub.Repos...)
	cp.Events = append([]string(nil), sub.Events...)
	return &cp
}
