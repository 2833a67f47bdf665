package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gitcordhq/gitcord/pkg/domain"
)

// StatusError carries a non-2xx response from the data source so the reply
// layer can pass the HTTP status through to the caller.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("data source returned status %d", e.Status)
}

// DataSource is the external read-only GitHub listing service used by the
// repos/issues/commits commands.
type DataSource interface {
	// Configured reports whether a base URL is set; unconfigured sources
	// yield a "not configured" reply instead of an error.
	Configured() bool
	Repos(ctx context.Context) ([]domain.RepoItem, error)
	Issues(ctx context.Context, repo string) ([]domain.IssueItem, error)
	Commits(ctx context.Context, repo string) ([]domain.CommitItem, error)
}

type GitHubSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGitHubSource(baseURL, apiKey string, timeout time.Duration) *GitHubSource {
	return &GitHubSource{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *GitHubSource) Configured() bool {
	return strings.TrimSpace(s.baseURL) != ""
}

func (s *GitHubSource) Repos(ctx context.Context) ([]domain.RepoItem, error) {
	var out []domain.RepoItem
	if err := s.get(ctx, "repos", "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GitHubSource) Issues(ctx context.Context, repo string) ([]domain.IssueItem, error) {
	var out []domain.IssueItem
	if err := s.get(ctx, "issues", repo, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GitHubSource) Commits(ctx context.Context, repo string) ([]domain.CommitItem, error) {
	var out []domain.CommitItem
	if err := s.get(ctx, "commits", repo, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GitHubSource) get(ctx context.Context, resource, repo string, out any) error {
	u := fmt.Sprintf("%s/api/github/%s", s.baseURL, resource)
	if repo != "" {
		u += "?repo=" + url.QueryEscape(repo)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("data source %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &StatusError{Status: resp.StatusCode, Body: string(snippet)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("data source %s: decode body: %w", resource, err)
	}
	return nil
}
