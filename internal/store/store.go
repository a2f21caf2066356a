package store

import "time"

// BadgeRecord is the applied outcome of one poll cycle.
//
// BadgeRecord is the storage representation of the badge, shaped for JSON
// (used by the REST API and SSE) and decoupled from the root package types.
type BadgeRecord struct {
	// Seq is the dispatch sequence number of the cycle that produced it.
	Seq uint64 `json:"seq"`

	// Status is the resolved state: "connected", "disconnected" or "unknown".
	Status string `json:"status"`

	// Class is the CSS class list applied to the badge element.
	Class string `json:"class"`

	// Text is the badge label.
	Text string `json:"text"`

	// StatusCode is the HTTP status code of the health response, 0 if none.
	StatusCode int `json:"status_code,omitempty"`

	// LatencyMs is the request latency in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// CheckedAt is when the cycle completed.
	CheckedAt time.Time `json:"checked_at"`

	// Error contains the failure cause, if any. Never shown on the badge.
	Error *string `json:"error,omitempty"`
}

// Store defines storage and subscription for the badge state.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Update replaces the current record and notifies all subscribers.
	Update(record BadgeRecord)

	// Latest returns the current record and whether one has been stored.
	Latest() (BadgeRecord, bool)

	// Subscribe returns a channel that receives updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan BadgeRecord

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan BadgeRecord)
}
