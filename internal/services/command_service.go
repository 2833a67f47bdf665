package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gitcordhq/gitcord/internal/events"
	"github.com/gitcordhq/gitcord/internal/metrics"
	"github.com/gitcordhq/gitcord/internal/providers"
	"github.com/gitcordhq/gitcord/internal/repository"
	"github.com/gitcordhq/gitcord/pkg/domain"
)

const (
	replyColor   = 0x5865F2
	listingLimit = 10
)

// CommandService translates command invocations into registry mutations or
// reads and produces a structured reply. Malformed input always yields a
// usage reply, never an error or panic.
type CommandService interface {
	Handle(ctx context.Context, inv domain.CommandInvocation) domain.Reply
}

type commandService struct {
	repo    repository.SubscriptionRepository
	source  providers.DataSource
	logger  *slog.Logger
	started time.Time
	now     func() time.Time
}

func NewCommandService(repo repository.SubscriptionRepository, source providers.DataSource, logger *slog.Logger) CommandService {
	now := time.Now
	return &commandService{repo: repo, source: source, logger: logger, started: now(), now: now}
}

func (s *commandService) Handle(ctx context.Context, inv domain.CommandInvocation) domain.Reply {
	var reply domain.Reply
	outcome := "ok"

	switch inv.Name {
	case "ping":
		reply = domain.Reply{Content: "Pong!"}
	case "status":
		reply, outcome = s.status(ctx)
	case "subscribe":
		reply, outcome = s.subscribe(ctx, inv)
	case "unsubscribe":
		reply, outcome = s.unsubscribe(ctx, inv)
	case "list":
		reply, outcome = s.list(ctx, inv)
	case "test":
		reply = s.testReply()
	case "repos":
		reply, outcome = s.repos(ctx)
	case "issues":
		reply, outcome = s.issues(ctx, inv.Arg("repo"))
	case "commits":
		reply, outcome = s.commits(ctx, inv.Arg("repo"))
	default:
		reply = domain.Reply{Content: fmt.Sprintf("Unknown command: %s", inv.Name)}
		outcome = "unknown"
	}

	metrics.CommandsTotal.WithLabelValues(inv.Name, outcome).Inc()
	return reply
}

func (s *commandService) status(ctx context.Context) (domain.Reply, string) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("status: count subscriptions", "err", err)
		return domain.Reply{Content: "Could not read subscription registry."}, "error"
	}
	uptime := s.now().Sub(s.started).Truncate(time.Second)
	embed := &domain.Embed{
		Title: "GitCord status",
		Color: replyColor,
		Fields: []domain.EmbedField{
			{Name: "Subscriptions", Value: fmt.Sprintf("%d", count), Inline: true},
			{Name: "Uptime", Value: uptime.String(), Inline: true},
		},
		Timestamp: s.now().UTC(),
	}
	return domain.Reply{Embed: embed}, "ok"
}

func (s *commandService) subscribe(ctx context.Context, inv domain.CommandInvocation) (domain.Reply, string) {
	channel := argOrChannel(inv, "channel")
	repo := strings.TrimSpace(inv.Arg("repo"))
	if channel == "" || repo == "" {
		return domain.Reply{Content: "Usage: /subscribe channel:<id> repo:<owner/name or *> [events:push,issues,...]"}, "usage"
	}

	eventList := domain.DefaultEvents()
	if raw := strings.TrimSpace(inv.Arg("events")); raw != "" {
		eventList = splitEvents(raw)
	}

	if _, err := s.repo.UpsertRepo(ctx, channel, repo); err != nil {
		s.logger.Error("subscribe: upsert repo", "channel", channel, "repo", repo, "err", err)
		return domain.Reply{Content: "Could not update subscription."}, "error"
	}
	sub, err := s.repo.MergeEvents(ctx, channel, eventList)
	if err != nil {
		s.logger.Error("subscribe: merge events", "channel", channel, "err", err)
		return domain.Reply{Content: "Could not update subscription."}, "error"
	}

	return domain.Reply{Content: fmt.Sprintf("Subscribed channel %s to **%s** (events: %s)",
		channel, repo, strings.Join(sub.Events, ", "))}, "ok"
}

func (s *commandService) unsubscribe(ctx context.Context, inv domain.CommandInvocation) (domain.Reply, string) {
	channel := argOrChannel(inv, "channel")
	if channel == "" {
		return domain.Reply{Content: "Usage: /unsubscribe channel:<id> [repo:<owner/name>]"}, "usage"
	}

	if repo := strings.TrimSpace(inv.Arg("repo")); repo != "" {
		if _, err := s.repo.RemoveRepo(ctx, channel, repo); err != nil {
			if err == repository.ErrNotFound {
				return domain.Reply{Content: fmt.Sprintf("No subscription found for channel %s.", channel)}, "not_found"
			}
			s.logger.Error("unsubscribe: remove repo", "channel", channel, "repo", repo, "err", err)
			return domain.Reply{Content: "Could not update subscription."}, "error"
		}
		return domain.Reply{Content: fmt.Sprintf("Removed **%s** from channel %s.", repo, channel)}, "ok"
	}

	if err := s.repo.Remove(ctx, channel); err != nil {
		if err == repository.ErrNotFound {
			return domain.Reply{Content: fmt.Sprintf("No subscription found for channel %s.", channel)}, "not_found"
		}
		s.logger.Error("unsubscribe: remove", "channel", channel, "err", err)
		return domain.Reply{Content: "Could not update subscription."}, "error"
	}
	return domain.Reply{Content: fmt.Sprintf("Unsubscribed channel %s.", channel)}, "ok"
}

func (s *commandService) list(ctx context.Context, inv domain.CommandInvocation) (domain.Reply, string) {
	if channel := strings.TrimSpace(inv.Arg("channel")); channel != "" {
		sub, err := s.repo.Get(ctx, channel)
		if err != nil {
			if err == repository.ErrNotFound {
				return domain.Reply{Content: fmt.Sprintf("No subscriptions found for channel %s.", channel)}, "not_found"
			}
			s.logger.Error("list: get", "channel", channel, "err", err)
			return domain.Reply{Content: "Could not read subscription registry."}, "error"
		}
		embed := &domain.Embed{
			Title:     "Subscriptions for channel " + channel,
			Color:     replyColor,
			Fields:    []domain.EmbedField{subscriptionField(*sub)},
			Timestamp: s.now().UTC(),
		}
		return domain.Reply{Embed: embed}, "ok"
	}

	all, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("list: list all", "err", err)
		return domain.Reply{Content: "Could not read subscription registry."}, "error"
	}
	if len(all) == 0 {
		return domain.Reply{Content: "No subscriptions yet."}, "ok"
	}

	embed := &domain.Embed{
		Title:     "Subscriptions",
		Color:     replyColor,
		Timestamp: s.now().UTC(),
	}
	for _, sub := range all {
		embed.Fields = append(embed.Fields, subscriptionField(sub))
	}
	return domain.Reply{Embed: embed}, "ok"
}

func (s *commandService) testReply() domain.Reply {
	now := s.now().UTC()
	embed := &domain.Embed{
		Title:       "Test notification",
		Description: "GitCord is wired up correctly. Generated at " + now.Format(time.RFC1123) + ".",
		Color:       replyColor,
		Timestamp:   now,
	}
	return domain.Reply{Embed: embed}
}

func (s *commandService) repos(ctx context.Context) (domain.Reply, string) {
	if s.source == nil || !s.source.Configured() {
		return domain.Reply{Content: "GitHub data source is not configured."}, "not_configured"
	}
	items, err := s.source.Repos(ctx)
	if err != nil {
		return s.sourceError("repos", err)
	}

	total := len(items)
	if len(items) > listingLimit {
		items = items[:listingLimit]
	}
	var lines []string
	for _, r := range items {
		line := fmt.Sprintf("\U0001F4E6 **%s**", r.Name)
		if r.Description != "" {
			line += " — " + events.Truncate(r.Description, events.IssueTitleBudget)
		}
		if r.Stars > 0 {
			line += fmt.Sprintf(" (⭐ %d)", r.Stars)
		}
		lines = append(lines, line)
	}
	embed := listingEmbed("Repositories", lines, len(items), total)
	embed.Timestamp = s.now().UTC()
	return domain.Reply{Embed: embed}, "ok"
}

func (s *commandService) issues(ctx context.Context, repo string) (domain.Reply, string) {
	if s.source == nil || !s.source.Configured() {
		return domain.Reply{Content: "GitHub data source is not configured."}, "not_configured"
	}
	items, err := s.source.Issues(ctx, repo)
	if err != nil {
		return s.sourceError("issues", err)
	}

	total := len(items)
	if len(items) > listingLimit {
		items = items[:listingLimit]
	}
	style := events.StyleFor(domain.EventIssues)
	var lines []string
	for _, is := range items {
		lines = append(lines, fmt.Sprintf("%s `#%d` %s (%s)",
			style.Emoji, is.Number, events.Truncate(is.Title, events.IssueTitleBudget), is.State))
	}
	embed := listingEmbed("Recent issues", lines, len(items), total)
	embed.Timestamp = s.now().UTC()
	return domain.Reply{Embed: embed}, "ok"
}

func (s *commandService) commits(ctx context.Context, repo string) (domain.Reply, string) {
	if s.source == nil || !s.source.Configured() {
		return domain.Reply{Content: "GitHub data source is not configured."}, "not_configured"
	}
	items, err := s.source.Commits(ctx, repo)
	if err != nil {
		return s.sourceError("commits", err)
	}

	total := len(items)
	if len(items) > listingLimit {
		items = items[:listingLimit]
	}
	var lines []string
	for _, c := range items {
		lines = append(lines, fmt.Sprintf("`%s` %s — %s",
			events.ShortHash(c.SHA), events.Truncate(events.FirstLine(c.Message), events.CommitMessageBudget), c.Author))
	}
	embed := listingEmbed("Recent commits", lines, len(items), total)
	embed.Timestamp = s.now().UTC()
	return domain.Reply{Embed: embed}, "ok"
}

func (s *commandService) sourceError(resource string, err error) (domain.Reply, string) {
	if se, ok := err.(*providers.StatusError); ok {
		s.logger.Warn("data source request failed", "resource", resource, "status", se.Status)
		return domain.Reply{Content: fmt.Sprintf("GitHub data source error: HTTP %d", se.Status)}, "upstream_error"
	}
	s.logger.Warn("data source request failed", "resource", resource, "err", err)
	return domain.Reply{Content: fmt.Sprintf("GitHub data source error: %v", err)}, "upstream_error"
}

func listingEmbed(title string, lines []string, shown, total int) *domain.Embed {
	desc := "Nothing to show."
	if len(lines) > 0 {
		desc = strings.Join(lines, "\n")
	}
	return &domain.Embed{
		Title:       title,
		Description: desc,
		Color:       replyColor,
		Footer:      fmt.Sprintf("Showing %d of %d", shown, total),
	}
}

func subscriptionField(sub domain.Subscription) domain.EmbedField {
	repos := strings.Join(sub.Repos, ", ")
	if repos == "" {
		repos = "* (all repositories)"
	}
	eventList := strings.Join(sub.Events, ", ")
	if eventList == "" {
		eventList = "all events"
	}
	return domain.EmbedField{
		Name:  "Channel " + sub.ChannelID,
		Value: fmt.Sprintf("Repos: %s\nEvents: %s", repos, eventList),
	}
}

// argOrChannel prefers an explicit argument, falling back to the invoking
// channel the boundary attached.
func argOrChannel(inv domain.CommandInvocation, name string) string {
	if v := strings.TrimSpace(inv.Arg(name)); v != "" {
		return v
	}
	return strings.TrimSpace(inv.ChannelID)
}

func splitEvents(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return domain.DefaultEvents()
	}
	return out
}
