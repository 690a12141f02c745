package dvm

import "errors"

// Error taxonomy for the job pipeline. Every failure is scoped to one job
// execution or one reconciliation tick; nothing here is process-fatal.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrConnection    = errors.New("connection error")
	ErrRequest       = errors.New("request error")
	ErrProcessing    = errors.New("processing error")
	ErrPayment       = errors.New("payment error")
)

// Stage names the pipeline stage an error belongs to, for logs and
// feedback messages.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrRequest):
		return "request"
	case errors.Is(err, ErrProcessing):
		return "processing"
	case errors.Is(err, ErrPayment):
		return "payment"
	default:
		return "unknown"
	}
}
