package models

// JobHistoryEntry is a read-only projection of one published result or
// feedback event. It has no storage of its own; every page is recomputed
// from the public event log.
type JobHistoryEntry struct {
	ID                string `json:"id"`
	Timestamp         int64  `json:"timestamp"` // unix milliseconds
	JobRequestEventID string `json:"job_request_event_id"`
	RequesterPubkey   string `json:"requester_pubkey"`
	Status            string `json:"status"`
	InvoiceAmountSats int64  `json:"invoice_amount_sats"`
	InvoiceBolt11     string `json:"invoice_bolt11,omitempty"`
	ResultSummary     string `json:"result_summary,omitempty"`
}

// JobStatistics aggregates a bounded window of published events.
type JobStatistics struct {
	TotalJobsProcessed  int   `json:"total_jobs_processed"`
	TotalSuccessfulJobs int   `json:"total_successful_jobs"`
	TotalFailedJobs     int   `json:"total_failed_jobs"`
	TotalRevenueSats    int64 `json:"total_revenue_sats"`
	JobsPendingPayment  int   `json:"jobs_pending_payment"`
}
