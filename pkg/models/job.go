package models

// Job request kinds occupy 5000–5999; the matching result kind is
// requestKind + 1000; all feedback is published on kind 7000.
const (
	JobRequestKindMin = 5000
	JobRequestKindMax = 5999
	JobResultKindMin  = 6000
	JobResultKindMax  = 6999
	JobFeedbackKind   = 7000
)

// Feedback status values carried in the "status" tag of kind-7000 events.
const (
	StatusProcessing      = "processing"
	StatusSuccess         = "success"
	StatusError           = "error"
	StatusPaymentRequired = "payment-required"
)

// DefaultOutputMime is assumed when a request carries no "output" tag.
const DefaultOutputMime = "text/plain"

// JobInput is one ordered input of a job request, taken from an "i" tag:
// [value, type, relay?, marker?].
type JobInput struct {
	Value  string `json:"value"`
	Type   string `json:"type"`
	Relay  string `json:"relay,omitempty"`
	Marker string `json:"marker,omitempty"`
}

// JobRequest is a structured, validated compute-job request decoded from a
// raw network event.
type JobRequest struct {
	ID              string            `json:"id"`
	RequesterPubkey string            `json:"requester_pubkey"`
	Kind            int               `json:"kind"`
	Inputs          []JobInput        `json:"inputs"`
	Params          map[string]string `json:"params"`
	OutputMime      string            `json:"output_mime"`
	BidMillisats    int64             `json:"bid_millisats,omitempty"`
	Encrypted       bool              `json:"encrypted"`
}

// FirstTextInput returns the first input of type "text", if any.
func (r JobRequest) FirstTextInput() (JobInput, bool) {
	for _, in := range r.Inputs {
		if in.Type == "text" {
			return in, true
		}
	}
	return JobInput{}, false
}
