package dvm

import (
	"context"
	"log/slog"

	"github.com/OpenAgentsInc/commander-sub000/internal/relay"
)

// FeedbackPublisher emits kind-7000 status events. Publishing is strictly
// best-effort: failures are logged and never surface to the caller, so a
// transient relay error cannot abort the owning job.
type FeedbackPublisher struct {
	identity Identity
	relay    relay.Client
	logger   *slog.Logger
}

func NewFeedbackPublisher(identity Identity, relayClient relay.Client, logger *slog.Logger) *FeedbackPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackPublisher{identity: identity, relay: relayClient, logger: logger}
}

// Publish signs and publishes one feedback event. It always returns normally.
func (p *FeedbackPublisher) Publish(ctx context.Context, fb Feedback) {
	ev, err := buildFeedbackEvent(p.identity, fb)
	if err != nil {
		p.logger.Warn("building feedback event failed",
			"request_id", fb.RequestID,
			"status", fb.Status,
			"error", err,
		)
		return
	}

	if err := p.relay.Publish(ctx, ev); err != nil {
		p.logger.Warn("publishing feedback event failed",
			"request_id", fb.RequestID,
			"status", fb.Status,
			"error", err,
		)
		return
	}

	p.logger.Debug("feedback published",
		"request_id", fb.RequestID,
		"status", fb.Status,
	)
}
