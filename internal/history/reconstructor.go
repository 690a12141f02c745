// Package history reconstructs job history and aggregate statistics purely
// by replaying events this DVM previously published. There is no private
// store; every query recomputes from the public log.
package history

import (
	"context"
	"strconv"
	"unicode/utf8"

	"github.com/OpenAgentsInc/commander-sub000/internal/relay"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
	"github.com/nbd-wtf/go-nostr"
)

const (
	// statsWindow bounds how many events each statistics query replays.
	statsWindow = 500

	defaultPageSize = 10
	maxSummaryBytes = 200

	encryptedSummary = "[Encrypted Result Content]"
)

// Service answers read-only history and statistics queries.
type Service struct {
	relay       relay.Client
	pubkey      string
	resultKinds []int
}

// NewService creates a reconstructor for events authored by pubkey.
// resultKinds are the result kinds this DVM publishes (request kind + 1000).
func NewService(relayClient relay.Client, pubkey string, resultKinds []int) *Service {
	return &Service{relay: relayClient, pubkey: pubkey, resultKinds: resultKinds}
}

// JobHistory returns one page of history entries, newest first, plus an
// approximate total count (the size of the merged fetched set — an exact
// total would require a full scan).
func (s *Service) JobHistory(ctx context.Context, page, pageSize int) ([]models.JobHistoryEntry, int, error) {
	if s.pubkey == "" {
		return []models.JobHistoryEntry{}, 0, nil
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	limit := page * pageSize
	events, err := s.relay.List(ctx, nostr.Filters{
		{
			Kinds:   s.resultKinds,
			Authors: []string{s.pubkey},
			Limit:   limit,
		},
		{
			Kinds:   []int{models.JobFeedbackKind},
			Authors: []string{s.pubkey},
			Tags:    nostr.TagMap{"status": []string{models.StatusSuccess}},
			Limit:   limit,
		},
	})
	if err != nil {
		return nil, 0, err
	}

	totalCount := len(events)

	start := (page - 1) * pageSize
	if start >= len(events) {
		return []models.JobHistoryEntry{}, totalCount, nil
	}
	end := start + pageSize
	if end > len(events) {
		end = len(events)
	}

	entries := make([]models.JobHistoryEntry, 0, end-start)
	for _, ev := range events[start:end] {
		entries = append(entries, entryFromEvent(ev))
	}
	return entries, totalCount, nil
}

// JobStatistics replays a bounded window of published events into counters.
func (s *Service) JobStatistics(ctx context.Context) (models.JobStatistics, error) {
	if s.pubkey == "" {
		return models.JobStatistics{}, nil
	}

	events, err := s.relay.List(ctx, nostr.Filters{
		{
			Kinds:   s.resultKinds,
			Authors: []string{s.pubkey},
			Limit:   statsWindow,
		},
		{
			Kinds:   []int{models.JobFeedbackKind},
			Authors: []string{s.pubkey},
			Limit:   statsWindow,
		},
	})
	if err != nil {
		return models.JobStatistics{}, err
	}

	var stats models.JobStatistics
	requestIDs := make(map[string]struct{})

	for _, ev := range events {
		if requestID := tagValue(ev, "e"); requestID != "" {
			requestIDs[requestID] = struct{}{}
		}

		if isResultKind(ev.Kind) {
			stats.TotalSuccessfulJobs++
			stats.TotalRevenueSats += amountSats(ev)
			continue
		}

		switch tagValue(ev, "status") {
		case models.StatusSuccess:
			stats.TotalSuccessfulJobs++
			stats.TotalRevenueSats += amountSats(ev)
		case models.StatusError:
			stats.TotalFailedJobs++
		case models.StatusPaymentRequired:
			stats.JobsPendingPayment++
		}
	}

	stats.TotalJobsProcessed = len(requestIDs)
	return stats, nil
}

// entryFromEvent maps one published event to a history entry.
func entryFromEvent(ev nostr.Event) models.JobHistoryEntry {
	entry := models.JobHistoryEntry{
		ID:                ev.ID,
		Timestamp:         int64(ev.CreatedAt) * 1000,
		JobRequestEventID: tagValue(ev, "e"),
		RequesterPubkey:   tagValue(ev, "p"),
	}

	if isResultKind(ev.Kind) {
		entry.Status = "completed"
	} else {
		entry.Status = tagValue(ev, "status")
	}

	if amountTag := ev.Tags.GetFirst([]string{"amount"}); amountTag != nil {
		t := []string(*amountTag)
		if len(t) > 1 {
			if msats, err := strconv.ParseInt(t[1], 10, 64); err == nil {
				entry.InvoiceAmountSats = msats / 1000
			}
		}
		if len(t) > 2 {
			entry.InvoiceBolt11 = t[2]
		}
	}

	if ev.Tags.GetFirst([]string{"encrypted"}) != nil {
		entry.ResultSummary = encryptedSummary
	} else {
		entry.ResultSummary = truncateString(ev.Content, maxSummaryBytes)
	}

	return entry
}

func isResultKind(kind int) bool {
	return kind >= models.JobResultKindMin && kind <= models.JobResultKindMax
}

func tagValue(ev nostr.Event, name string) string {
	tag := ev.Tags.GetFirst([]string{name})
	if tag == nil {
		return ""
	}
	t := []string(*tag)
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

func amountSats(ev nostr.Event) int64 {
	msats := tagValue(ev, "amount")
	if msats == "" {
		return 0
	}
	v, err := strconv.ParseInt(msats, 10, 64)
	if err != nil {
		return 0
	}
	return v / 1000
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
