package repository

import (
	"context"
	"errors"

	"github.com/gitcordhq/gitcord/pkg/domain"
)

// ErrNotFound is returned when a channel has no subscription record.
var ErrNotFound = errors.New("subscription not found")

// SubscriptionRepository owns the channel → subscription mapping. Every
// operation is atomic with respect to concurrent callers: two UpsertRepo
// calls for the same channel never lose an update.
//
// Contract notes (see domain.Subscription): repository filters are
// deduplicated on add; RemoveRepo never deletes the record, even when the
// resulting list is empty — an empty list means "match every repository".
// Only Remove deletes a record.
type SubscriptionRepository interface {
	// UpsertRepo creates the subscription if absent and appends repo to its
	// filter list unless already present.
	UpsertRepo(ctx context.Context, channelID, repo string) (*domain.Subscription, error)

	// MergeEvents unions events into the subscription's event filters,
	// creating the record if absent. Idempotent.
	MergeEvents(ctx context.Context, channelID string, events []string) (*domain.Subscription, error)

	// RemoveRepo removes all occurrences of repo from the filter list.
	// Returns ErrNotFound when the channel has no record.
	RemoveRepo(ctx context.Context, channelID, repo string) (*domain.Subscription, error)

	// Remove deletes the entire record. Returns ErrNotFound when absent.
	Remove(ctx context.Context, channelID string) error

	Get(ctx context.Context, channelID string) (*domain.Subscription, error)

	// ListAll returns a point-in-time snapshot of every subscription.
	ListAll(ctx context.Context) (map[string]domain.Subscription, error)

	Count(ctx context.Context) (int, error)
}

// mergeEventList unions additions into base preserving insertion order.
func mergeEventList(base, additions []string) []string {
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(additions))
	for _, e := range base {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	for _, e := range additions {
		if e != "" && !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

func removeAll(list []string, item string) []string {
	out := list[:0]
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}
