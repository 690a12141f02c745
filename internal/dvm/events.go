package dvm

import (
	"fmt"
	"strconv"

	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
	"github.com/nbd-wtf/go-nostr"
)

// Feedback is one status update for a job request, published as a
// kind-7000 event.
type Feedback struct {
	RequestID       string
	RequesterPubkey string
	Status          string
	Message         string
	AmountMillisats int64
	Bolt11          string
}

// buildResultEvent assembles and signs the JobResult event for a request:
// kind = requestKind + 1000, referencing the request id and requester, with
// the amount+invoice tag and an "encrypted" marker when the content is
// ciphertext.
func buildResultEvent(id Identity, req models.JobRequest, content string, amountMillisats int64, bolt11 string) (nostr.Event, error) {
	tags := nostr.Tags{
		nostr.Tag{"e", req.ID},
		nostr.Tag{"p", req.RequesterPubkey},
		nostr.Tag{"amount", strconv.FormatInt(amountMillisats, 10), bolt11},
	}
	if req.Encrypted {
		tags = append(tags, nostr.Tag{"encrypted"})
	}

	ev := nostr.Event{
		CreatedAt: nostr.Now(),
		Kind:      req.Kind + 1000,
		Tags:      tags,
		Content:   content,
	}
	if err := ev.Sign(id.PrivateKey); err != nil {
		return nostr.Event{}, fmt.Errorf("%w: signing result event: %v", ErrConfiguration, err)
	}
	return ev, nil
}

// buildFeedbackEvent assembles and signs a kind-7000 JobFeedback event.
func buildFeedbackEvent(id Identity, fb Feedback) (nostr.Event, error) {
	statusTag := nostr.Tag{"status", fb.Status}
	if fb.Message != "" {
		statusTag = append(statusTag, fb.Message)
	}

	tags := nostr.Tags{
		nostr.Tag{"e", fb.RequestID},
		nostr.Tag{"p", fb.RequesterPubkey},
		statusTag,
	}
	if fb.AmountMillisats > 0 {
		tags = append(tags, nostr.Tag{"amount", strconv.FormatInt(fb.AmountMillisats, 10), fb.Bolt11})
	}

	ev := nostr.Event{
		CreatedAt: nostr.Now(),
		Kind:      models.JobFeedbackKind,
		Tags:      tags,
	}
	if err := ev.Sign(id.PrivateKey); err != nil {
		return nostr.Event{}, fmt.Errorf("%w: signing feedback event: %v", ErrConfiguration, err)
	}
	return ev, nil
}
