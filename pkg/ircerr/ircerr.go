// Package ircerr names the error kinds of the error handling design:
// distinct failure modes that different layers of the server are
// expected to handle differently (log-and-continue, map to an IRC
// numeric, close the connection, reconnect, or terminate the process).
//
// Grounded on cmd/warren's own error idiom — fmt.Errorf("...: %w", err)
// wrapping, no project-wide sentinel-error package — generalised only
// as far as having one typed Kind per distinguishable error-handling
// policy, since callers do need to distinguish these (errors.As) where
// a CLI command's errors never needed more than a log line.
package ircerr

import (
	"errors"
	"fmt"
)

// Kind tags which of the error handling design's policies an Error
// falls under.
type Kind string

const (
	// CausalViolation: an event's referenced target does not exist
	// despite its clock being satisfied. Logged; event dropped;
	// operator-visible counter incremented. Never propagated to a
	// client.
	CausalViolation Kind = "causal_violation"

	// SerializationError: malformed wire bytes from a peer or client.
	// Logged; peer reputation is not adjusted in this release.
	SerializationError Kind = "serialization_error"

	// LookupError: a state query referenced an unknown id. Surfaced to
	// the command handler, which maps it to the appropriate protocol
	// numeric (e.g. ERR_NOSUCHNICK).
	LookupError Kind = "lookup_error"

	// CommunicationError: a bounded channel to a client overflowed.
	// Closes the client connection.
	CommunicationError Kind = "communication_error"

	// PolicyViolation: a permission check failed. Surfaced to the
	// issuing command handler as the matching numeric (e.g.
	// ERR_CHANOPRIVSNEEDED).
	PolicyViolation Kind = "policy_violation"

	// IoError: a transport-layer failure. At the replicator this
	// triggers reconnection to peers; at startup, before initial sync
	// completes, it is fatal.
	IoError Kind = "io_error"
)

// Error wraps an underlying cause with the Kind that determines how a
// caller should react to it.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "reducer.apply"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error. Wrap callers at the point that classifies
// the failure, not at the point that first observed a raw error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is an *Error of the given kind, unwrapping
// through fmt.Errorf %w chains via errors.As.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
