package domain

import "time"

// GitHub event types with dedicated rendering. Any other event type still
// flows through the relay with a generic rendering.
const (
	EventPush        = "push"
	EventPullRequest = "pull_request"
	EventIssues      = "issues"
	EventRelease     = "release"
	EventFork        = "fork"
	EventCreate      = "create"
	EventDelete      = "delete"
)

// DefaultEvents returns the event filter applied when a subscription does not
// name any events explicitly.
func DefaultEvents() []string {
	return []string{EventPush, EventIssues, EventPullRequest, EventRelease}
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Embed is the renderer's output shape, transport-agnostic. Sinks translate
// it to their own wire format.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      string       `json:"footer,omitempty"`
	Timestamp   time.Time    `json:"timestamp,omitempty"`
}

// Notification is a rendered event ready for routing. Repo is the
// owner/name the event originated from; routing matches it against
// subscription filters.
type Notification struct {
	EventType string `json:"eventType"`
	Repo      string `json:"repo"`
	Embed     Embed  `json:"embed"`
}
