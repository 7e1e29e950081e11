// Package egress consumes OutMessages from a durable work queue,
// translates them via the CardIR pipeline, rate-limits, sends them to
// the target platform, and classifies the result (spec §4.4).
package egress

import "strconv"

// Disposition is what the worker does with the bus message after an
// attempted send.
type Disposition int

const (
	// DispositionSuccess acks; the send completed (2xx).
	DispositionSuccess Disposition = iota
	// DispositionTransient naks for redelivery (429, 5xx, network error,
	// limiter acquisition failure).
	DispositionTransient
	// DispositionPermanent DLQs and acks (4xx other than 429, translation
	// errors, config errors) — never redelivered.
	DispositionPermanent
)

// ClassifyStatus maps an HTTP status code to a Disposition per spec
// §4.4 step 6 / §7's error-kind table.
func ClassifyStatus(status int) Disposition {
	switch {
	case status >= 200 && status < 300:
		return DispositionSuccess
	case status == 429 || status >= 500:
		return DispositionTransient
	default:
		return DispositionPermanent
	}
}

// RetryAfterSeconds parses a Retry-After header value as a hint for
// the next attempt's delay (spec §4.4 "respect it as the next
// attempt's delay hint"). Non-numeric values (HTTP-dates) are not
// supported; 0, false is returned for those, leaving the bus's own
// backoff schedule in charge.
func RetryAfterSeconds(header string) (int, bool) {
	if header == "" {
		return 0, false
	}
	n, err := strconv.Atoi(header)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
