package domain

import "testing"

func TestSubscriptionMatchesRepo(t *testing.T) {
	tests := []struct {
		name  string
		repos []string
		repo  string
		want  bool
	}{
		{"empty filter matches anything", nil, "octo/demo", true},
		{"literal match", []string{"octo/demo"}, "octo/demo", true},
		{"literal mismatch", []string{"octo/demo"}, "octo/other", false},
		{"wildcard matches anything", []string{"*"}, "some/repo", true},
		{"wildcard among literals", []string{"octo/demo", "*"}, "any/thing", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Subscription{ChannelID: "123", Repos: tt.repos}
			if got := s.MatchesRepo(tt.repo); got != tt.want {
				t.Errorf("MatchesRepo(%q) = %v, want %v", tt.repo, got, tt.want)
			}
		})
	}
}

func TestSubscriptionMatchesEvent(t *testing.T) {
	s := Subscription{ChannelID: "123", Events: []string{EventPush, EventRelease}}
	if !s.MatchesEvent(EventPush) {
		t.Error("expected push to match")
	}
	if s.MatchesEvent(EventIssues) {
		t.Error("expected issues not to match")
	}

	empty := Subscription{ChannelID: "123"}
	for _, e := range []string{EventPush, EventFork, "workflow_run"} {
		if !empty.MatchesEvent(e) {
			t.Errorf("empty event filter should match %q", e)
		}
	}
}

func TestSubscriptionMatches(t *testing.T) {
	s := Subscription{ChannelID: "123", Repos: []string{"octo/demo"}, Events: []string{EventPush}}

	n := &Notification{EventType: EventPush, Repo: "octo/demo"}
	if !s.Matches(n) {
		t.Error("expected matching repo+event to match")
	}

	n = &Notification{EventType: EventPush, Repo: "octo/other"}
	if s.Matches(n) {
		t.Error("expected non-subscribed repo not to match")
	}

	n = &Notification{EventType: EventIssues, Repo: "octo/demo"}
	if s.Matches(n) {
		t.Error("expected non-subscribed event not to match")
	}
}

func TestInvocationArgNilMap(t *testing.T) {
	inv := CommandInvocation{Name: "subscribe"}
	if got := inv.Arg("repo"); got != "" {
		t.Errorf("Arg on nil map = %q, want empty", got)
	}
}

func TestDefaultEvents(t *testing.T) {
	want := []string{"push", "issues", "pull_request", "release"}
	got := DefaultEvents()
	if len(got) != len(want) {
		t.Fatalf("DefaultEvents() has %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DefaultEvents()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
