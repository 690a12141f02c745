// Package reconcile polls pending invoices against the payment provider on
// a fixed interval. Outcomes are observed and logged only; the public event
// log remains the source of truth.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/OpenAgentsInc/commander-sub000/internal/cache"
	"github.com/OpenAgentsInc/commander-sub000/internal/lightning"
	"github.com/OpenAgentsInc/commander-sub000/pkg/models"
)

const (
	// reconcilePageSize is the history window each tick replays.
	reconcilePageSize = 500

	// memoTTL bounds how long a terminal invoice outcome is remembered.
	memoTTL = 24 * time.Hour
)

// HistorySource provides the pending-payment view each tick works from.
type HistorySource interface {
	JobHistory(ctx context.Context, page, pageSize int) ([]models.JobHistoryEntry, int, error)
}

// Loop is the payment reconciliation loop. Exactly one runs per listening
// session.
type Loop struct {
	history  HistorySource
	wallet   lightning.Client
	memo     cache.Cache // optional; nil disables the settled-invoice memo
	interval time.Duration
	logger   *slog.Logger
}

func NewLoop(history HistorySource, wallet lightning.Client, memo cache.Cache, interval time.Duration, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		history:  history,
		wallet:   wallet,
		memo:     memo,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks on the configured interval until ctx is cancelled. Cancellation
// is immediate and leak-free.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick polls every pending-payment invoice once. Per-invoice provider
// errors are logged and never abort the tick.
func (l *Loop) tick(ctx context.Context) {
	entries, _, err := l.history.JobHistory(ctx, 1, reconcilePageSize)
	if err != nil {
		l.logger.Warn("reconcile: fetching job history failed", "error", err)
		return
	}

	var checked, paid int
	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.Status != models.StatusPaymentRequired || entry.InvoiceBolt11 == "" {
			continue
		}
		if l.settledMemo(ctx, entry.InvoiceBolt11) {
			continue
		}

		status, err := l.wallet.CheckInvoiceStatus(ctx, entry.InvoiceBolt11)
		if err != nil {
			l.logger.Warn("reconcile: invoice status check failed",
				"request_id", entry.JobRequestEventID,
				"error", err,
			)
			continue
		}
		checked++

		switch status.Status {
		case lightning.StatusPaid:
			paid++
			l.logger.Info("reconcile: invoice paid",
				"request_id", entry.JobRequestEventID,
				"amount_paid_millisats", status.AmountPaidMillisats,
			)
			l.remember(ctx, entry.InvoiceBolt11, status.Status)
		case lightning.StatusExpired, lightning.StatusError:
			l.logger.Info("reconcile: invoice closed without payment",
				"request_id", entry.JobRequestEventID,
				"status", status.Status,
				"message", status.Message,
			)
			l.remember(ctx, entry.InvoiceBolt11, status.Status)
		}
	}

	if checked > 0 {
		l.logger.Info("reconcile: tick complete", "checked", checked, "paid", paid)
	}
}

// settledMemo reports whether this invoice already reached a terminal state
// in a previous tick. Memo failures degrade to re-polling.
func (l *Loop) settledMemo(ctx context.Context, bolt11 string) bool {
	if l.memo == nil {
		return false
	}
	_, found, err := l.memo.GetInvoiceStatus(ctx, bolt11)
	if err != nil {
		return false
	}
	return found
}

func (l *Loop) remember(ctx context.Context, bolt11, status string) {
	if l.memo == nil {
		return
	}
	if err := l.memo.SetInvoiceStatus(ctx, bolt11, status, memoTTL); err != nil {
		l.logger.Debug("reconcile: invoice memo write failed", "error", err)
	}
}
