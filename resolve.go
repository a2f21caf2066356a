package healthbadge

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnexpectedStatusCode is reported when the endpoint answered with a
	// non-2xx status and the resolver requires success.
	ErrUnexpectedStatusCode = errors.New("unexpected status code")

	// ErrMalformedBody is reported when the body is not valid JSON.
	ErrMalformedBody = errors.New("malformed health response")

	// ErrNotConnected is reported when the body decoded but the status field
	// did not hold the expected value.
	ErrNotConnected = errors.New("health endpoint did not report connected")
)

// Resolver maps a [ProbeResult] to a [HealthStatus].
//
// Resolution is a pure function of its input: the same probe always yields
// the same status, and every failure collapses to [StatusDisconnected].
type Resolver struct {
	// Field is the path of the status field in the JSON body, in gjson
	// dot syntax ("status", "data.health.status").
	Field string

	// Value is the exact string that means connected. Comparison is
	// case-sensitive.
	Value string

	// RequireSuccess treats any non-2xx response as a failure, whatever the
	// body says. When false the decoded body decides regardless of the
	// status code.
	RequireSuccess bool
}

// DefaultResolver expects {"status": "connected"} in the response body.
// The HTTP status code is not consulted, so an error response carrying a
// connected body still resolves to [StatusConnected].
var DefaultResolver = Resolver{
	Field: "status",
	Value: "connected",
}

// Resolve maps a probe to a status using [DefaultResolver].
func Resolve(p ProbeResult) HealthStatus {
	return DefaultResolver.Resolve(p)
}

// Resolve maps a probe to a status.
func (r Resolver) Resolve(p ProbeResult) HealthStatus {
	status, _ := r.Explain(p)
	return status
}

// Explain is like Resolve but also returns why the result is
// [StatusDisconnected]. The error is nil only for [StatusConnected].
func (r Resolver) Explain(p ProbeResult) (HealthStatus, error) {
	if p.Err != nil {
		return StatusDisconnected, p.Err
	}
	if r.RequireSuccess && (p.StatusCode < 200 || p.StatusCode > 299) {
		return StatusDisconnected, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, p.StatusCode)
	}
	if !gjson.ValidBytes(p.Body) {
		return StatusDisconnected, ErrMalformedBody
	}

	// duplicate keys resolve to their first occurrence
	field := gjson.GetBytes(p.Body, r.Field)
	if field.Type != gjson.String {
		return StatusDisconnected, fmt.Errorf("%w: %s missing or not a string", ErrNotConnected, r.Field)
	}
	if field.Str != r.Value {
		return StatusDisconnected, fmt.Errorf("%w: %s=%q", ErrNotConnected, r.Field, field.Str)
	}
	return StatusConnected, nil
}

func (r Resolver) validate() error {
	if r.Field == "" {
		return errors.New("resolver field cannot be empty")
	}
	if r.Value == "" {
		return errors.New("resolver value cannot be empty")
	}
	return nil
}
