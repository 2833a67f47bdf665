package events

import (
	"strings"
	"testing"
	"time"
)

func testRenderer() *Renderer {
	fixed := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	return &Renderer{now: func() time.Time { return fixed }}
}

func TestRenderMissingRepositoryDropped(t *testing.T) {
	r := testRenderer()
	_, err := r.Render("push", []byte(`{"ref":"refs/heads/main"}`))
	if err != ErrNoRepository {
		t.Fatalf("Render without repository = %v, want ErrNoRepository", err)
	}
}

func TestRenderInvalidJSON(t *testing.T) {
	r := testRenderer()
	if _, err := r.Render("push", []byte(`{not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRenderPush(t *testing.T) {
	payload := `{
		"ref": "refs/heads/main",
		"compare": "https://github.com/octo/demo/compare/abc...def",
		"repository": {"full_name": "octo/demo"},
		"sender": {"login": "octocat"},
		"commits": [
			{"id": "0123456789abcdef", "message": "first commit\nbody text"},
			{"id": "fedcba9876543210", "message": "` + strings.Repeat("x", 80) + `"},
			{"id": "1111111111111111", "message": "third"},
			{"id": "2222222222222222", "message": "fourth, not shown"}
		]
	}`
	n, err := testRenderer().Render("push", []byte(payload))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n.EventType != "push" || n.Repo != "octo/demo" {
		t.Errorf("routing keys = (%q, %q)", n.EventType, n.Repo)
	}
	if n.Embed.Title != "Push to octo/demo" {
		t.Errorf("Title = %q", n.Embed.Title)
	}

	byName := map[string]string{}
	for _, f := range n.Embed.Fields {
		byName[f.Name] = f.Value
	}
	if byName["Branch"] != "main" {
		t.Errorf("Branch = %q, want main", byName["Branch"])
	}
	if byName["Commits"] != "4" {
		t.Errorf("Commits = %q, want 4", byName["Commits"])
	}
	if byName["Author"] != "octocat" {
		t.Errorf("Author = %q", byName["Author"])
	}

	lines := strings.Split(byName["Recent commits"], "\n")
	if len(lines) != 3 {
		t.Fatalf("commit list has %d lines, want 3: %q", len(lines), byName["Recent commits"])
	}
	if !strings.HasPrefix(lines[0], "`0123456` first commit") {
		t.Errorf("first commit line = %q", lines[0])
	}
	if strings.Contains(lines[0], "body text") {
		t.Errorf("commit line should only carry the first message line: %q", lines[0])
	}
	// 50-char budget plus backticked 7-char hash and separator.
	msg := lines[1][strings.Index(lines[1], "` ")+2:]
	if len([]rune(msg)) > CommitMessageBudget {
		t.Errorf("commit message exceeds budget: %d chars", len([]rune(msg)))
	}
}

func TestRenderPullRequestMerged(t *testing.T) {
	payload := `{
		"action": "closed",
		"number": 42,
		"repository": {"full_name": "octo/demo"},
		"pull_request": {
			"title": "Add feature",
			"state": "closed",
			"merged": true,
			"html_url": "https://github.com/octo/demo/pull/42",
			"user": {"login": "alice"},
			"head": {"ref": "feature"},
			"base": {"ref": "main"}
		}
	}`
	n, err := testRenderer().Render("pull_request", []byte(payload))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n.Embed.Title != "Pull Request closed: #42" {
		t.Errorf("Title = %q", n.Embed.Title)
	}
	byName := map[string]string{}
	for _, f := range n.Embed.Fields {
		byName[f.Name] = f.Value
	}
	if byName["State"] != "Merged" {
		t.Errorf("State = %q, want Merged for merged PR", byName["State"])
	}
	if byName["Branches"] != "feature → main" {
		t.Errorf("Branches = %q", byName["Branches"])
	}
}

func TestRenderIssuesLabelsAndTruncation(t *testing.T) {
	longTitle := strings.Repeat("t", 100)
	payload := `{
		"action": "opened",
		"repository": {"full_name": "octo/demo"},
		"issue": {
			"number": 7,
			"title": "` + longTitle + `",
			"state": "open",
			"html_url": "https://github.com/octo/demo/issues/7",
			"user": {"login": "bob"},
			"labels": [{"name": "bug"}, {"name": "help wanted"}]
		}
	}`
	n, err := testRenderer().Render("issues", []byte(payload))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n.Embed.Title != "Issue opened: #7" {
		t.Errorf("Title = %q", n.Embed.Title)
	}
	byName := map[string]string{}
	for _, f := range n.Embed.Fields {
		byName[f.Name] = f.Value
	}
	if len([]rune(byName["Title"])) != IssueTitleBudget {
		t.Errorf("issue title length = %d, want %d", len([]rune(byName["Title"])), IssueTitleBudget)
	}
	if byName["Labels"] != "`bug`, `help wanted`" {
		t.Errorf("Labels = %q", byName["Labels"])
	}
}

func TestRenderReleasePrereleaseAndNotesBudget(t *testing.T) {
	body := strings.Repeat("n", 300)
	payload := `{
		"action": "published",
		"repository": {"full_name": "octo/demo"},
		"release": {
			"tag_name": "v1.2.3",
			"html_url": "https://github.com/octo/demo/releases/v1.2.3",
			"prerelease": true,
			"body": "` + body + `",
			"author": {"login": "carol"}
		}
	}`
	n, err := testRenderer().Render("release", []byte(payload))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n.Embed.Title != "Release published: v1.2.3" {
		t.Errorf("Title = %q", n.Embed.Title)
	}
	byName := map[string]string{}
	for _, f := range n.Embed.Fields {
		byName[f.Name] = f.Value
	}
	if byName["Prerelease"] != "Yes" {
		t.Errorf("Prerelease = %q, want Yes", byName["Prerelease"])
	}
	if len([]rune(byName["Notes"])) > ReleaseNotesBudget {
		t.Errorf("Notes length = %d, budget %d", len([]rune(byName["Notes"])), ReleaseNotesBudget)
	}
}

func TestRenderUnrecognizedEvent(t *testing.T) {
	payload := `{"repository": {"full_name": "octo/demo"}}`
	n, err := testRenderer().Render("watch", []byte(payload))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n.Embed.Title != "watch on octo/demo" {
		t.Errorf("Title = %q", n.Embed.Title)
	}
	if !strings.Contains(n.Embed.Description, "watch") {
		t.Errorf("Description = %q, should state the raw event type", n.Embed.Description)
	}
	if n.Embed.Color != defaultStyle.Color {
		t.Errorf("Color = %#x, want fallback %#x", n.Embed.Color, defaultStyle.Color)
	}
}

func TestRenderCreateRef(t *testing.T) {
	payload := `{
		"ref": "v2.0.0",
		"ref_type": "tag",
		"repository": {"full_name": "octo/demo"},
		"sender": {"login": "dave"}
	}`
	n, err := testRenderer().Render("create", []byte(payload))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n.Embed.Title != "Tag created: v2.0.0" {
		t.Errorf("Title = %q", n.Embed.Title)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	payload := []byte(`{
		"ref": "refs/heads/main",
		"repository": {"full_name": "octo/demo"},
		"sender": {"login": "octocat"},
		"commits": [{"id": "0123456789abcdef", "message": "m"}]
	}`)
	r := testRenderer()
	a, err := r.Render("push", payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, err := r.Render("push", payload)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if a.Embed.Title != b.Embed.Title || len(a.Embed.Fields) != len(b.Embed.Fields) {
		t.Error("two renders of the same payload differ")
	}
	for i := range a.Embed.Fields {
		if a.Embed.Fields[i] != b.Embed.Fields[i] {
			t.Errorf("field %d differs: %+v vs %+v", i, a.Embed.Fields[i], b.Embed.Fields[i])
		}
	}
}
