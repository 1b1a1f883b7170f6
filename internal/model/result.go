package model

import "time"

type FetchMechanism int

const (
	HTTPForm FetchMechanism = iota
	HeadlessBrowser
)

func (fm FetchMechanism) String() string {
	return [...]string{"http", "browser"}[fm]
}

type FailureReason string

const (
	ReasonNotFound   FailureReason = "not_found"
	ReasonTimeout    FailureReason = "timeout"
	ReasonParseError FailureReason = "parse_error"
	ReasonNavigation FailureReason = "navigation_error"
	ReasonCancelled  FailureReason = "cancelled"
)

// Retryable reports whether another attempt could plausibly succeed.
// A missing record or an unrecognized page layout will not change on retry.
func (fr FailureReason) Retryable() bool {
	return fr == ReasonTimeout || fr == ReasonNavigation
}

type FetchRequest struct {
	PIN      string `json:"pin"`
	Semester string `json:"semester"`
}

// FetchTask is the broker message that requests a single fetch.
type FetchTask struct {
	PIN      string `json:"pin"`
	Semester string `json:"semester"`
}

// FetchResult holds the outcome of fetching one PIN. Exactly one of
// Record or Reason is set.
type FetchResult struct {
	PIN         string         `json:"pin"`
	Record      *StudentRecord `json:"record,omitempty"`
	Reason      FailureReason  `json:"reason,omitempty"`
	Detail      string         `json:"detail,omitempty"`
	Attempts    int            `json:"attempts"`
	TimeToFetch int64          `json:"time_to_fetch"` // in milliseconds
}

func (r FetchResult) Succeeded() bool {
	return r.Record != nil
}

// Kind is the outcome label used for progress reporting and metrics:
// "success" or the failure reason.
func (r FetchResult) Kind() string {
	if r.Succeeded() {
		return "success"
	}
	return string(r.Reason)
}

type Failure struct {
	PIN    string        `json:"pin"`
	Reason FailureReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// BatchOutcome is the immutable result of one collector run. Results holds
// one entry per submitted PIN in input order; Successes and Failures are
// views over the same data, also in input order.
type BatchOutcome struct {
	Results    []FetchResult
	Successes  []*StudentRecord
	Failures   []Failure
	Total      int
	StartedAt  time.Time
	FinishedAt time.Time
}

func (o *BatchOutcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}
