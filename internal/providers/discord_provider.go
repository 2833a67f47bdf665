package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gitcordhq/gitcord/internal/tracing"
	"github.com/gitcordhq/gitcord/pkg/domain"
)

// Sink accepts rendered embeds for delivery to a channel. The Discord REST
// client is the production implementation; tests substitute fakes.
type Sink interface {
	SendEmbed(ctx context.Context, channelID string, embed domain.Embed) error
}

// WireEmbed is the wire shape of a Discord embed. It is exported so the
// interactions endpoint can reuse the same serialization for replies.
type WireEmbed struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	URL         string           `json:"url,omitempty"`
	Color       int              `json:"color,omitempty"`
	Fields      []WireEmbedField `json:"fields,omitempty"`
	Footer      *WireFooter      `json:"footer,omitempty"`
	Timestamp   string           `json:"timestamp,omitempty"`
}

type WireEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type WireFooter struct {
	Text string `json:"text"`
}

type DiscordClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewDiscordClient builds a REST sink for the Discord channel-message API.
// The timeout bounds every delivery attempt.
func NewDiscordClient(baseURL, token string, timeout time.Duration) *DiscordClient {
	return &DiscordClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendEmbed posts one embed to a channel. A non-2xx response is an error;
// callers decide whether to log or surface it.
func (c *DiscordClient) SendEmbed(ctx context.Context, channelID string, embed domain.Embed) error {
	body := map[string]any{"embeds": []WireEmbed{ToWireEmbed(embed)}}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.token)
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("discord send: channel %s: status %d: %s", channelID, resp.StatusCode, string(snippet))
	}
	return nil
}

func ToWireEmbed(e domain.Embed) WireEmbed {
	out := WireEmbed{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, WireEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if e.Footer != "" {
		out.Footer = &WireFooter{Text: e.Footer}
	}
	if !e.Timestamp.IsZero() {
		out.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
	}
	return out
}
