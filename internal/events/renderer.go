package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gitcordhq/gitcord/pkg/domain"
)

// Truncation budgets, in characters of source text. Truncation is silent.
const (
	IssueTitleBudget    = 60
	CommitMessageBudget = 50
	ReleaseNotesBudget  = 200
)

const maxCommitsShown = 3

// ErrNoRepository marks a payload without an extractable repository
// identity; such events cannot be routed and are dropped.
var ErrNoRepository = errors.New("payload has no repository identity")

// Style is the static per-event presentation lookup.
type Style struct {
	Color int
	Emoji string
}

var styles = map[string]Style{
	domain.EventPush:        {Color: 0x3498DB, Emoji: "\U0001F4E4"}, // 📤
	domain.EventPullRequest: {Color: 0x9B59B6, Emoji: "\U0001F500"}, // 🔀
	domain.EventIssues:      {Color: 0xE67E22, Emoji: "\U0001F41B"}, // 🐛
	domain.EventRelease:     {Color: 0x2ECC71, Emoji: "\U0001F680"}, // 🚀
	domain.EventFork:        {Color: 0x1ABC9C, Emoji: "\U0001F374"}, // 🍴
	domain.EventCreate:      {Color: 0x27AE60, Emoji: "\U0001F331"}, // 🌱
	domain.EventDelete:      {Color: 0xE74C3C, Emoji: "\U0001F5D1"}, // 🗑
}

var defaultStyle = Style{Color: 0x7289DA, Emoji: "\U0001F4E3"} // 📣

// StyleFor returns the color and emoji for an event type, falling back to a
// generic style for unrecognized types.
func StyleFor(eventType string) Style {
	if s, ok := styles[eventType]; ok {
		return s
	}
	return defaultStyle
}

// Renderer classifies raw webhook payloads and produces channel-agnostic
// notifications. It is pure apart from reading the clock for the embed
// timestamp.
type Renderer struct {
	now func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// Render builds a Notification from a raw event type and payload. It returns
// ErrNoRepository when the payload carries no repository identity, and a
// decode error when the payload is not valid JSON.
func (r *Renderer) Render(eventType string, payload []byte) (*domain.Notification, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	repo := env.Repository.FullName
	if repo == "" {
		return nil, ErrNoRepository
	}

	style := StyleFor(eventType)
	embed := domain.Embed{
		Color:     style.Color,
		Footer:    style.Emoji + " GitHub • " + eventType,
		Timestamp: r.now().UTC(),
	}

	var err error
	switch eventType {
	case domain.EventPush:
		err = renderPush(&embed, repo, payload)
	case domain.EventPullRequest:
		err = renderPullRequest(&embed, payload)
	case domain.EventIssues:
		err = renderIssues(&embed, payload)
	case domain.EventRelease:
		err = renderRelease(&embed, payload)
	case domain.EventFork:
		err = renderFork(&embed, payload)
	case domain.EventCreate:
		err = renderRef(&embed, payload, "created")
	case domain.EventDelete:
		err = renderRef(&embed, payload, "deleted")
	default:
		embed.Title = fmt.Sprintf("%s on %s", eventType, repo)
		embed.Description = fmt.Sprintf("Received a %s event.", eventType)
	}
	if err != nil {
		return nil, err
	}

	return &domain.Notification{EventType: eventType, Repo: repo, Embed: embed}, nil
}

func renderPush(embed *domain.Embed, repo string, payload []byte) error {
	var p pushPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode push payload: %w", err)
	}

	author := p.Sender.Login
	if author == "" {
		author = p.Pusher.Name
	}

	embed.Title = "Push to " + repo
	embed.URL = p.Compare
	embed.Fields = []domain.EmbedField{
		{Name: "Branch", Value: lastSegment(p.Ref), Inline: true},
		{Name: "Commits", Value: fmt.Sprintf("%d", len(p.Commits)), Inline: true},
		{Name: "Author", Value: author, Inline: true},
	}

	var lines []string
	for i, c := range p.Commits {
		if i == maxCommitsShown {
			break
		}
		lines = append(lines, fmt.Sprintf("`%s` %s", ShortHash(c.ID), Truncate(FirstLine(c.Message), CommitMessageBudget)))
	}
	if len(lines) > 0 {
		embed.Fields = append(embed.Fields, domain.EmbedField{Name: "Recent commits", Value: strings.Join(lines, "\n")})
	}
	return nil
}

func renderPullRequest(embed *domain.Embed, payload []byte) error {
	var p pullRequestPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode pull_request payload: %w", err)
	}

	state := p.PullRequest.State
	if p.PullRequest.Merged {
		state = "Merged"
	}

	embed.Title = fmt.Sprintf("Pull Request %s: #%d", p.Action, p.Number)
	embed.URL = p.PullRequest.URL
	embed.Fields = []domain.EmbedField{
		{Name: "Title", Value: p.PullRequest.Title},
		{Name: "Author", Value: p.PullRequest.User.Login, Inline: true},
		{Name: "State", Value: state, Inline: true},
		{Name: "Branches", Value: p.PullRequest.Head.Ref + " → " + p.PullRequest.Base.Ref, Inline: true},
	}
	return nil
}

func renderIssues(embed *domain.Embed, payload []byte) error {
	var p issuesPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode issues payload: %w", err)
	}

	embed.Title = fmt.Sprintf("Issue %s: #%d", p.Action, p.Issue.Number)
	embed.URL = p.Issue.URL
	embed.Fields = []domain.EmbedField{
		{Name: "Title", Value: Truncate(p.Issue.Title, IssueTitleBudget)},
		{Name: "Author", Value: p.Issue.User.Login, Inline: true},
		{Name: "State", Value: p.Issue.State, Inline: true},
	}
	if len(p.Issue.Labels) > 0 {
		names := make([]string, 0, len(p.Issue.Labels))
		for _, l := range p.Issue.Labels {
			names = append(names, "`"+l.Name+"`")
		}
		embed.Fields = append(embed.Fields, domain.EmbedField{Name: "Labels", Value: strings.Join(names, ", ")})
	}
	return nil
}

func renderRelease(embed *domain.Embed, payload []byte) error {
	var p releasePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode release payload: %w", err)
	}

	prerelease := "No"
	if p.Release.Prerelease {
		prerelease = "Yes"
	}

	embed.Title = fmt.Sprintf("Release %s: %s", p.Action, p.Release.TagName)
	embed.URL = p.Release.URL
	embed.Fields = []domain.EmbedField{
		{Name: "Tag", Value: p.Release.TagName, Inline: true},
		{Name: "Author", Value: p.Release.Author.Login, Inline: true},
		{Name: "Prerelease", Value: prerelease, Inline: true},
	}
	if p.Release.Body != "" {
		embed.Fields = append(embed.Fields, domain.EmbedField{Name: "Notes", Value: Truncate(p.Release.Body, ReleaseNotesBudget)})
	}
	return nil
}

func renderFork(embed *domain.Embed, payload []byte) error {
	var p forkPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode fork payload: %w", err)
	}
	var env envelope
	_ = json.Unmarshal(payload, &env)

	embed.Title = "Fork created: " + p.Forkee.FullName
	embed.URL = p.Forkee.URL
	embed.Fields = []domain.EmbedField{
		{Name: "By", Value: p.Sender.Login, Inline: true},
		{Name: "Forks", Value: fmt.Sprintf("%d", env.Repository.ForksCount), Inline: true},
	}
	return nil
}

func renderRef(embed *domain.Embed, payload []byte, verb string) error {
	var p refPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode ref payload: %w", err)
	}

	kind := p.RefType
	if kind == "" {
		kind = "ref"
	}
	embed.Title = fmt.Sprintf("%s %s: %s", titleCase(kind), verb, p.Ref)
	embed.Fields = []domain.EmbedField{
		{Name: "By", Value: p.Sender.Login, Inline: true},
	}
	return nil
}

// Truncate cuts s to at most n characters of source text, counting runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func ShortHash(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// lastSegment returns the last path segment of a git ref, e.g.
// "refs/heads/main" yields "main".
func lastSegment(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
