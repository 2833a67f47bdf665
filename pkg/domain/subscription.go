package domain

import "time"

// RepoWildcard matches any repository when present in a subscription's
// repository filter list.
const RepoWildcard = "*"

// Subscription is a channel's filter configuration: which repositories and
// which event types it wants relayed.
//
// Filter semantics are deliberately asymmetric and callers must not rely on
// anything beyond what is stated here: an empty Repos list matches every
// repository (same as containing RepoWildcard), and an empty Events list
// matches every event type. Removing the last repository from a subscription
// leaves an empty (match-all) record in place; only an explicit full
// unsubscribe deletes the record.
type Subscription struct {
	ChannelID string    `json:"channelId"`
	Repos     []string  `json:"repos"`
	Events    []string  `json:"events"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MatchesRepo reports whether the subscription's repository filters accept
// the given owner/name repository.
func (s *Subscription) MatchesRepo(repo string) bool {
	if len(s.Repos) == 0 {
		return true
	}
	for _, r := range s.Repos {
		if r == RepoWildcard || r == repo {
			return true
		}
	}
	return false
}

// MatchesEvent reports whether the subscription's event filters accept the
// given event type.
func (s *Subscription) MatchesEvent(event string) bool {
	if len(s.Events) == 0 {
		return true
	}
	for _, e := range s.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Matches reports whether a notification should be delivered to this
// subscription's channel.
func (s *Subscription) Matches(n *Notification) bool {
	return s.MatchesRepo(n.Repo) && s.MatchesEvent(n.EventType)
}

// HasRepo reports whether repo is already present in the filter list.
func (s *Subscription) HasRepo(repo string) bool {
	for _, r := range s.Repos {
		if r == repo {
			return true
		}
	}
	return false
}
