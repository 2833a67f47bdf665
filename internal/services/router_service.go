package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/gitcordhq/gitcord/internal/metrics"
	"github.com/gitcordhq/gitcord/internal/providers"
	"github.com/gitcordhq/gitcord/internal/ratelimit"
	"github.com/gitcordhq/gitcord/internal/repository"
	"github.com/gitcordhq/gitcord/pkg/domain"

	"github.com/google/uuid"
)

// RouterService computes which channels a notification reaches and fans the
// delivery out to the Discord sink.
type RouterService interface {
	// Route returns the channel IDs whose subscription matches the
	// notification. Computed fresh from a registry snapshot on every call;
	// never cached.
	Route(ctx context.Context, n *domain.Notification) ([]string, error)

	// Dispatch routes the notification and delivers it to every matched
	// channel, blocking until all attempts finish. Deliveries run
	// concurrently and independently: a failing or throttled channel never
	// blocks or fails its siblings. Returns the matched channels. Callers
	// on a request path run Dispatch in its own goroutine so the webhook
	// acknowledgement does not wait on deliveries.
	Dispatch(ctx context.Context, n *domain.Notification) ([]string, error)
}

type routerService struct {
	repo    repository.SubscriptionRepository
	sink    providers.Sink
	logger  *slog.Logger
	limiter ratelimit.Limiter
	bucket  ratelimit.Bucket
}

func NewRouterService(repo repository.SubscriptionRepository, sink providers.Sink, logger *slog.Logger, limiter ratelimit.Limiter, bucket ratelimit.Bucket) RouterService {
	return &routerService{repo: repo, sink: sink, logger: logger, limiter: limiter, bucket: bucket}
}

func (s *routerService) Route(ctx context.Context, n *domain.Notification) ([]string, error) {
	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var channels []string
	for id, sub := range subs {
		if sub.Matches(n) {
			channels = append(channels, id)
		}
	}
	sort.Strings(channels)
	return channels, nil
}

func (s *routerService) Dispatch(ctx context.Context, n *domain.Notification) ([]string, error) {
	// Snapshot the registry before fan-out so a slow delivery cannot stall
	// routing, and subscription changes mid-delivery have no effect.
	channels, err := s.Route(ctx, n)
	if err != nil {
		return nil, err
	}
	metrics.NotificationsRoutedTotal.WithLabelValues(n.EventType).Add(float64(len(channels)))

	deliveryID := uuid.NewString()

	// Deliveries outlive the inbound webhook request: the sender gets its
	// acknowledgement as soon as the event is accepted for processing.
	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, channelID := range channels {
		wg.Add(1)
		go func(channelID string) {
			defer wg.Done()
			s.deliver(base, deliveryID, channelID, n)
		}(channelID)
	}
	wg.Wait()

	return channels, nil
}

func (s *routerService) deliver(ctx context.Context, deliveryID, channelID string, n *domain.Notification) {
	if s.limiter != nil && s.bucket.Enabled() {
		dec, err := s.limiter.Allow(ctx, "delivery", channelID, s.bucket)
		if err != nil {
			// Limiter trouble must not cost deliveries; fall through.
			s.logger.Warn("delivery throttle check failed", "channel", channelID, "err", err)
		} else if !dec.Allowed {
			metrics.DeliveriesTotal.WithLabelValues(n.EventType, "throttled").Inc()
			s.logger.Warn("delivery throttled",
				"delivery", deliveryID, "channel", channelID, "event", n.EventType, "retryAfter", dec.RetryAfter)
			return
		}
	}

	if err := s.sink.SendEmbed(ctx, channelID, n.Embed); err != nil {
		metrics.DeliveriesTotal.WithLabelValues(n.EventType, "failure").Inc()
		s.logger.Warn("delivery failed",
			"delivery", deliveryID, "channel", channelID, "event", n.EventType, "repo", n.Repo, "err", err)
		return
	}
	metrics.DeliveriesTotal.WithLabelValues(n.EventType, "success").Inc()
	s.logger.Debug("delivered notification",
		"delivery", deliveryID, "channel", channelID, "event", n.EventType, "repo", n.Repo)
}
