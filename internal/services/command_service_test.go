package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/gitcordhq/gitcord/internal/providers"
	"github.com/gitcordhq/gitcord/internal/repository"
	"github.com/gitcordhq/gitcord/pkg/domain"
)

type fakeSource struct {
	configured bool
	repos      []domain.RepoItem
	issues     []domain.IssueItem
	commits    []domain.CommitItem
	err        error
}

func (f *fakeSource) Configured() bool { return f.configured }

func (f *fakeSource) Repos(ctx context.Context) ([]domain.RepoItem, error) {
	return f.repos, f.err
}

func (f *fakeSource) Issues(ctx context.Context, repo string) ([]domain.IssueItem, error) {
	return f.issues, f.err
}

func (f *fakeSource) Commits(ctx context.Context, repo string) ([]domain.CommitItem, error) {
	return f.commits, f.err
}

func newCommandFixture(src providers.DataSource) (repository.SubscriptionRepository, CommandService) {
	repo := repository.NewMemoryRepository()
	return repo, NewCommandService(repo, src, slog.Default())
}

func invoke(name string, args map[string]string) domain.CommandInvocation {
	return domain.CommandInvocation{Name: name, Args: args}
}

func TestPing(t *testing.T) {
	_, svc := newCommandFixture(nil)
	reply := svc.Handle(context.Background(), invoke("ping", nil))
	if reply.Content != "Pong!" {
		t.Errorf("ping reply = %q", reply.Content)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, svc := newCommandFixture(nil)
	reply := svc.Handle(context.Background(), invoke("bogus", nil))
	if !strings.Contains(reply.Content, "Unknown command") {
		t.Errorf("reply = %q", reply.Content)
	}
}

func TestSubscribeDefaults(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCommandFixture(nil)

	reply := svc.Handle(ctx, invoke("subscribe", map[string]string{"channel": "123", "repo": "octo/demo"}))
	if !strings.Contains(reply.Content, "octo/demo") {
		t.Errorf("reply = %q", reply.Content)
	}

	sub, err := repo.Get(ctx, "123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sub.Repos) != 1 || sub.Repos[0] != "octo/demo" {
		t.Errorf("Repos = %v", sub.Repos)
	}
	want := domain.DefaultEvents()
	if len(sub.Events) != len(want) {
		t.Fatalf("Events = %v, want defaults %v", sub.Events, want)
	}
	for i := range want {
		if sub.Events[i] != want[i] {
			t.Errorf("Events[%d] = %q, want %q", i, sub.Events[i], want[i])
		}
	}
}

func TestSubscribeExplicitEvents(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCommandFixture(nil)

	svc.Handle(ctx, invoke("subscribe", map[string]string{"channel": "123", "repo": "*", "events": "push, release"}))

	sub, err := repo.Get(ctx, "123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sub.Events) != 2 || sub.Events[0] != "push" || sub.Events[1] != "release" {
		t.Errorf("Events = %v", sub.Events)
	}
}

func TestSubscribeMissingChannelIsUsage(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCommandFixture(nil)

	reply := svc.Handle(ctx, invoke("subscribe", map[string]string{"repo": "octo/demo"}))
	if !strings.Contains(reply.Content, "Usage") {
		t.Errorf("reply = %q, want usage message", reply.Content)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("registry modified on usage error: %d records", n)
	}
}

func TestSubscribeMissingRepoIsUsage(t *testing.T) {
	_, svc := newCommandFixture(nil)
	reply := svc.Handle(context.Background(), invoke("subscribe", map[string]string{"channel": "123"}))
	if !strings.Contains(reply.Content, "Usage") {
		t.Errorf("reply = %q, want usage message", reply.Content)
	}
}

func TestSubscribeFallsBackToInvokingChannel(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCommandFixture(nil)

	inv := domain.CommandInvocation{
		Name:      "subscribe",
		ChannelID: "999",
		Args:      map[string]string{"repo": "octo/demo"},
	}
	svc.Handle(ctx, inv)
	if _, err := repo.Get(ctx, "999"); err != nil {
		t.Errorf("expected subscription for invoking channel: %v", err)
	}
}

func TestUnsubscribeFull(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCommandFixture(nil)
	svc.Handle(ctx, invoke("subscribe", map[string]string{"channel": "123", "repo": "octo/demo"}))

	reply := svc.Handle(ctx, invoke("unsubscribe", map[string]string{"channel": "123"}))
	if !strings.Contains(reply.Content, "Unsubscribed") {
		t.Errorf("reply = %q", reply.Content)
	}

	// Listing afterwards reports nothing for the channel.
	reply = svc.Handle(ctx, invoke("list", map[string]string{"channel": "123"}))
	if !strings.Contains(reply.Content, "No subscriptions found") {
		t.Errorf("list reply = %q, want not-found", reply.Content)
	}
	if _, err := repo.Get(ctx, "123"); err != repository.ErrNotFound {
		t.Errorf("Get after unsubscribe = %v, want ErrNotFound", err)
	}
}

func TestUnsubscribeSingleRepoKeepsRecord(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCommandFixture(nil)
	svc.Handle(ctx, invoke("subscribe", map[string]string{"channel": "123", "repo": "octo/demo"}))

	reply := svc.Handle(ctx, invoke("unsubscribe", map[string]string{"channel": "123", "repo": "octo/demo"}))
	if !strings.Contains(reply.Content, "Removed") {
		t.Errorf("reply = %q", reply.Content)
	}
	if _, err := repo.Get(ctx, "123"); err != nil {
		t.Errorf("record should survive repo removal: %v", err)
	}
}

func TestUnsubscribeMissingChannelIsUsage(t *testing.T) {
	_, svc := newCommandFixture(nil)
	reply := svc.Handle(context.Background(), invoke("unsubscribe", nil))
	if !strings.Contains(reply.Content, "Usage") {
		t.Errorf("reply = %q", reply.Content)
	}
}

func TestUnsubscribeUnknownChannelNotFound(t *testing.T) {
	_, svc := newCommandFixture(nil)
	reply := svc.Handle(context.Background(), invoke("unsubscribe", map[string]string{"channel": "404"}))
	if !strings.Contains(reply.Content, "No subscription found") {
		t.Errorf("reply = %q", reply.Content)
	}
}

func TestListAllEmpty(t *testing.T) {
	_, svc := newCommandFixture(nil)
	reply := svc.Handle(context.Background(), invoke("list", nil))
	if !strings.Contains(reply.Content, "No subscriptions yet") {
		t.Errorf("reply = %q", reply.Content)
	}
}

func TestListAll(t *testing.T) {
	ctx := context.Background()
	_, svc := newCommandFixture(nil)
	svc.Handle(ctx, invoke("subscribe", map[string]string{"channel": "123", "repo": "octo/demo"}))
	svc.Handle(ctx, invoke("subscribe", map[string]string{"channel": "456", "repo": "*"}))

	reply := svc.Handle(ctx, invoke("list", nil))
	if reply.Embed == nil {
		t.Fatalf("expected embed listing, got %q", reply.Content)
	}
	if len(reply.Embed.Fields) != 2 {
		t.Errorf("listing has %d fields, want 2", len(reply.Embed.Fields))
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	_, svc := newCommandFixture(nil)
	svc.Handle(ctx, invoke("subscribe", map[string]string{"channel": "123", "repo": "octo/demo"}))

	reply := svc.Handle(ctx, invoke("status", nil))
	if reply.Embed == nil {
		t.Fatalf("expected status embed, got %q", reply.Content)
	}
	byName := map[string]string{}
	for _, f := range reply.Embed.Fields {
		byName[f.Name] = f.Value
	}
	if byName["Subscriptions"] != "1" {
		t.Errorf("Subscriptions = %q, want 1", byName["Subscriptions"])
	}
	if byName["Uptime"] == "" {
		t.Error("Uptime field missing")
	}
}

func TestTestCommand(t *testing.T) {
	_, svc := newCommandFixture(nil)
	reply := svc.Handle(context.Background(), invoke("test", nil))
	if reply.Embed == nil || reply.Embed.Title != "Test notification" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestReposNotConfigured(t *testing.T) {
	_, svc := newCommandFixture(&fakeSource{configured: false})
	reply := svc.Handle(context.Background(), invoke("repos", nil))
	if !strings.Contains(reply.Content, "not configured") {
		t.Errorf("reply = %q", reply.Content)
	}
}

func TestReposTopTenWithFooter(t *testing.T) {
	src := &fakeSource{configured: true}
	for i := 0; i < 12; i++ {
		src.repos = append(src.repos, domain.RepoItem{Name: fmt.Sprintf("repo-%d", i)})
	}
	_, svc := newCommandFixture(src)

	reply := svc.Handle(context.Background(), invoke("repos", nil))
	if reply.Embed == nil {
		t.Fatalf("expected embed, got %q", reply.Content)
	}
	if reply.Embed.Footer != "Showing 10 of 12" {
		t.Errorf("Footer = %q", reply.Embed.Footer)
	}
	if lines := strings.Split(reply.Embed.Description, "\n"); len(lines) != 10 {
		t.Errorf("listing has %d lines, want 10", len(lines))
	}
}

func TestIssuesTruncatesTitles(t *testing.T) {
	src := &fakeSource{
		configured: true,
		issues: []domain.IssueItem{
			{Number: 1, Title: strings.Repeat("a", 120), State: "open"},
		},
	}
	_, svc := newCommandFixture(src)

	reply := svc.Handle(context.Background(), invoke("issues", map[string]string{"repo": "octo/demo"}))
	if reply.Embed == nil {
		t.Fatalf("expected embed, got %q", reply.Content)
	}
	if strings.Contains(reply.Embed.Description, strings.Repeat("a", 61)) {
		t.Error("issue title exceeds 60-character budget in listing")
	}
	if !strings.Contains(reply.Embed.Description, strings.Repeat("a", 60)) {
		t.Error("issue title should carry the first 60 characters")
	}
}

func TestCommitsUpstreamStatusPassThrough(t *testing.T) {
	src := &fakeSource{configured: true, err: &providers.StatusError{Status: 503}}
	_, svc := newCommandFixture(src)

	reply := svc.Handle(context.Background(), invoke("commits", nil))
	if !strings.Contains(reply.Content, "HTTP 503") {
		t.Errorf("reply = %q, want HTTP status pass-through", reply.Content)
	}
}
