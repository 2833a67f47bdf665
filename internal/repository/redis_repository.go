package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gitcordhq/gitcord/pkg/domain"

	"github.com/go-redis/redis/v8"
)

const rmwRetries = 20

// redisRepo stores one JSON record per channel under gitcord:sub:<channel>,
// with gitcord:subs as the channel index. Read-modify-write operations run
// under WATCH so concurrent mutations of the same channel cannot lose
// updates.
type redisRepo struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisRepository(rdb *redis.Client) SubscriptionRepository {
	return &redisRepo{rdb: rdb, now: time.Now}
}

func keySub(channelID string) string { return "gitcord:sub:" + channelID }

const keyIndex = "gitcord:subs"

func (r *redisRepo) UpsertRepo(ctx context.Context, channelID, repo string) (*domain.Subscription, error) {
	return r.mutate(ctx, channelID, true, func(sub *domain.Subscription) {
		if !sub.HasRepo(repo) {
			sub.Repos = append(sub.Repos, repo)
		}
	})
}

func (r *redisRepo) MergeEvents(ctx context.Context, channelID string, events []string) (*domain.Subscription, error) {
	return r.mutate(ctx, channelID, true, func(sub *domain.Subscription) {
		sub.Events = mergeEventList(sub.Events, events)
	})
}

func (r *redisRepo) RemoveRepo(ctx context.Context, channelID, repo string) (*domain.Subscription, error) {
	return r.mutate(ctx, channelID, false, func(sub *domain.Subscription) {
		sub.Repos = removeAll(sub.Repos, repo)
	})
}

// mutate runs fn against the channel's record inside a WATCH transaction,
// retrying on contention. When create is false a missing record yields
// ErrNotFound.
func (r *redisRepo) mutate(ctx context.Context, channelID string, create bool, fn func(*domain.Subscription)) (*domain.Subscription, error) {
	var result *domain.Subscription
	key := keySub(channelID)

	txn := func(tx *redis.Tx) error {
		js, err := tx.Get(ctx, key).Result()
		var sub domain.Subscription
		switch {
		case err == redis.Nil:
			if !create {
				return ErrNotFound
			}
			sub = domain.Subscription{ChannelID: channelID, CreatedAt: r.now().UTC()}
		case err != nil:
			return fmt.Errorf("redis GET sub: %w", err)
		default:
			if err := json.Unmarshal([]byte(js), &sub); err != nil {
				return fmt.Errorf("unmarshal sub: %w", err)
			}
		}

		fn(&sub)
		sub.UpdatedAt = r.now().UTC()

		b, err := json.Marshal(sub)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(b), 0)
			pipe.SAdd(ctx, keyIndex, channelID)
			return nil
		})
		if err != nil {
			return err
		}
		result = &sub
		return nil
	}

	for i := 0; i < rmwRetries; i++ {
		err := r.rdb.Watch(ctx, txn, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("subscription update for channel %s kept conflicting", channelID)
}

func (r *redisRepo) Remove(ctx context.Context, channelID string) error {
	n, err := r.rdb.Del(ctx, keySub(channelID)).Result()
	if err != nil {
		return fmt.Errorf("redis DEL sub: %w", err)
	}
	if err := r.rdb.SRem(ctx, keyIndex, channelID).Err(); err != nil {
		return fmt.Errorf("redis SREM sub index: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *redisRepo) Get(ctx context.Context, channelID string) (*domain.Subscription, error) {
	js, err := r.rdb.Get(ctx, keySub(channelID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET sub: %w", err)
	}
	var sub domain.Subscription
	if err := json.Unmarshal([]byte(js), &sub); err != nil {
		return nil, fmt.Errorf("unmarshal sub: %w", err)
	}
	return &sub, nil
}

func (r *redisRepo) ListAll(ctx context.Context) (map[string]domain.Subscription, error) {
	ids, err := r.rdb.SMembers(ctx, keyIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMEMBERS sub index: %w", err)
	}
	out := make(map[string]domain.Subscription, len(ids))
	for _, id := range ids {
		sub, err := r.Get(ctx, id)
		if err == ErrNotFound {
			// Index entry without a record; skip rather than fail the listing.
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = *sub
	}
	return out, nil
}

func (r *redisRepo) Count(ctx context.Context) (int, error) {
	n, err := r.rdb.SCard(ctx, keyIndex).Result()
	if err != nil {
		return 0, fmt.Errorf("redis SCARD sub index: %w", err)
	}
	return int(n), nil
}
