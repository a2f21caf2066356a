package healthbadge

import "time"

// HealthStatus is the resolved state of the remote service.
//
// Only [StatusConnected] and [StatusDisconnected] are ever produced by a poll
// cycle. [StatusUnknown] is the implicit state before the first cycle has
// been applied.
type HealthStatus string

const (
	// StatusConnected means the health endpoint answered with status "connected".
	StatusConnected HealthStatus = "connected"

	// StatusDisconnected covers every other outcome: unreachable, timed out,
	// malformed body, or any reported status other than "connected".
	StatusDisconnected HealthStatus = "disconnected"

	// StatusUnknown is the pre-first-poll state.
	StatusUnknown HealthStatus = "unknown"
)

// String returns the string representation of the status.
func (s HealthStatus) String() string {
	return string(s)
}

// Badge is the style and label pair applied to the status indicator.
type Badge struct {
	Class string `json:"class"`
	Text  string `json:"text"`
}

var (
	connectedBadge    = Badge{Class: "badge bg-success", Text: "API Connected"}
	disconnectedBadge = Badge{Class: "badge bg-danger", Text: "API Disconnected"}
	unknownBadge      = Badge{Class: "badge bg-secondary", Text: "Checking API..."}
)

// BadgeFor returns the badge shown for a status. The connected and
// disconnected badges are mutually exclusive; anything unrecognised renders
// as the neutral pre-poll badge.
func BadgeFor(s HealthStatus) Badge {
	switch s {
	case StatusConnected:
		return connectedBadge
	case StatusDisconnected:
		return disconnectedBadge
	default:
		return unknownBadge
	}
}

// ProbeResult is what the transport observed for one health request.
type ProbeResult struct {
	// Body is the response body, limited to 1MB.
	Body []byte

	// StatusCode is the HTTP status code, zero if no response arrived.
	StatusCode int

	// Latency is how long the request took.
	Latency time.Duration

	// Err is the transport error: network failure, timeout or cancellation.
	Err error
}

// Update is one completed poll cycle as delivered to a [Sink].
type Update struct {
	// Seq is the cycle's dispatch sequence number. Higher means dispatched later.
	Seq uint64

	// Status is the resolved state.
	Status HealthStatus

	// Badge is BadgeFor(Status).
	Badge Badge

	// CheckedAt is when the cycle completed.
	CheckedAt time.Time

	// Latency is the request duration.
	Latency time.Duration

	// StatusCode is the HTTP status code, zero if no response arrived.
	StatusCode int

	// Err explains a disconnected result. It is for logs and metrics only;
	// the badge never distinguishes causes.
	Err error
}
