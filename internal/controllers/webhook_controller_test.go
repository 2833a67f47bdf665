package controllers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/internal/events"
	"github.com/gitcordhq/gitcord/pkg/domain"
)

const webhookSecret = "webhook-secret"

type fakeRouter struct {
	dispatched chan *domain.Notification
}

func (f *fakeRouter) Route(ctx context.Context, n *domain.Notification) ([]string, error) {
	return nil, nil
}

func (f *fakeRouter) Dispatch(ctx context.Context, n *domain.Notification) ([]string, error) {
	f.dispatched <- n
	return []string{"123"}, nil
}

func newWebhookFixture() (*fakeRouter, gin.HandlerFunc) {
	router := &fakeRouter{dispatched: make(chan *domain.Notification, 1)}
	ctrl := NewWebhookController(events.NewRenderer(), router, webhookSecret, slog.Default())
	return router, ctrl.Handle
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, handler gin.HandlerFunc, event string, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/v1/gitcord/webhook/github", bytes.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	ctx.Request.Header.Set("X-GitHub-Event", event)
	ctx.Request.Header.Set("X-GitHub-Delivery", "d-1")
	if signature != "" {
		ctx.Request.Header.Set("X-Hub-Signature-256", signature)
	}
	handler(ctx)
	return rec
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	_, handler := newWebhookFixture()
	body := []byte(`{"repository":{"full_name":"octo/demo"}}`)

	rec := postWebhook(t, handler, "push", body, "sha256=deadbeef")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	rec = postWebhook(t, handler, "push", body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing signature: status = %d, want 401", rec.Code)
	}
}

func TestWebhookAcksAndDispatches(t *testing.T) {
	router, handler := newWebhookFixture()
	body := []byte(`{"repository":{"full_name":"octo/demo","html_url":"https://github.com/octo/demo"},"ref":"refs/heads/main","commits":[],"sender":{"login":"octocat"}}`)

	rec := postWebhook(t, handler, "push", body, sign(body))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	select {
	case n := <-router.dispatched:
		if n.Repo != "octo/demo" || n.EventType != "push" {
			t.Errorf("dispatched %s/%s, want push for octo/demo", n.EventType, n.Repo)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never happened")
	}
}

func TestWebhookPingAcked(t *testing.T) {
	router, handler := newWebhookFixture()
	body := []byte(`{"zen":"Design for failure."}`)

	rec := postWebhook(t, handler, "ping", body, sign(body))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	select {
	case <-router.dispatched:
		t.Fatal("ping must not dispatch")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWebhookDropsPayloadWithoutRepository(t *testing.T) {
	router, handler := newWebhookFixture()
	body := []byte(`{"action":"opened"}`)

	// Malformed-but-authenticated deliveries are still acknowledged.
	rec := postWebhook(t, handler, "issues", body, sign(body))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	select {
	case <-router.dispatched:
		t.Fatal("dropped event must not dispatch")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWebhookUnrecognizedEventStillRelayed(t *testing.T) {
	router, handler := newWebhookFixture()
	body := []byte(`{"repository":{"full_name":"octo/demo"}}`)

	rec := postWebhook(t, handler, "workflow_run", body, sign(body))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	select {
	case n := <-router.dispatched:
		if n.EventType != "workflow_run" {
			t.Errorf("dispatched event = %s", n.EventType)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch never happened")
	}
}
