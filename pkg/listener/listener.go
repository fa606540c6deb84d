// Package listener declares the Listener Collection collaborator:
// TCP/TLS socket accept and per-connection framing are treated as an
// external collaborator here, only its interface specified — a Sink
// adapter turns each ConnectionEvent into a servernode.ClientEvent, so
// pkg/servernode and pkg/dispatch never see ConnectionEvent itself and work without
// caring whether the implementation behind this interface is a real
// net.Listener, an in-process test fake, or a restored set of inherited
// file descriptors.
//
// Grounded on original_source/client_listener/src/internal/listener.rs
// and irc_server/src/listener.rs: the Rust original's listener task
// owns accept loops per bound address and forwards every socket event
// through one channel to the server core, exactly the shape Collection
// and Sink describe here.
package listener

import (
	"crypto/tls"

	"github.com/cuemby/ircfed/pkg/eventid"
)

// Mode selects whether a bound address terminates TLS.
type Mode int

const (
	Clear Mode = iota
	Tls
)

// ListenerID names one bound address within a Collection, returned by
// AddListener and carried in a SavedListeners entry so Resume can
// re-associate an inherited file descriptor with its original binding.
type ListenerID uint32

// ConnectionEventKind tags the variant carried by a ConnectionEvent.
type ConnectionEventKind string

const (
	NewConnection ConnectionEventKind = "NewConnection"
	Message       ConnectionEventKind = "Message"
	Error         ConnectionEventKind = "Error"
)

// ConnectionEvent is what a Collection emits to its Sink for every
// accepted socket, line received, and read/write error. Exactly one of
// Handle, Bytes, Err is meaningful, selected by Kind — the same
// tagged-union shape as ircevent.EventDetails and
// netstate.NetworkStateChange.
type ConnectionEvent struct {
	Source ConnectionID
	Kind   ConnectionEventKind
	Handle Connection
	Bytes  []byte
	Err    error
}

// ConnectionID identifies the connection a ConnectionEvent originated
// from; an alias so callers never need to import pkg/eventid directly
// just to read Source off a ConnectionEvent.
type ConnectionID = eventid.ConnectionID

// Sink receives ConnectionEvents as a Collection produces them. A real
// implementation hands each event to pkg/servernode.SubmitClientEvent
// after translating it to a servernode.ClientEvent.
type Sink interface {
	Accept(ConnectionEvent)
}

// Connection is the per-socket handle a NewConnection event carries.
// Send is fire-and-forget: a bounded queue per
// connection, and overflow closes the connection with a
// CommunicationError (pkg/ircerr.CommunicationError) rather than
// blocking the caller.
type Connection interface {
	ID() ConnectionID
	Send(line string)
	Close()
}

// TLSCertificates is the key/chain pair LoadTLSCertificates installs
// for subsequently bound Tls listeners.
type TLSCertificates struct {
	Key       []byte
	CertChain []byte
}

// SavedListeners is the listeners field of the persisted
// SavedState: enough to re-bind (or re-associate inherited descriptors
// with) every address a Collection was serving at save time.
type SavedListeners struct {
	AddressTable map[ListenerID]string
	FDTable      map[ListenerID]uintptr
}

// Collection is the listener collaborator contract: new(event_sink),
// add_listener, load_tls_certificates, save/resume, shutdown.
type Collection interface {
	AddListener(address string, mode Mode) (ListenerID, error)
	LoadTLSCertificates(certs TLSCertificates) (*tls.Config, error)
	Save() (SavedListeners, error)
	Shutdown()
}

// NewFunc constructs a Collection delivering ConnectionEvents to sink.
// Declared here as a contract, not implemented: a concrete Collection
// needs a real net.Listener accept loop, which this module deliberately
// leaves unimplemented.
type NewFunc func(sink Sink) Collection

// ResumeFunc reconstructs a Collection from a previously Saved state,
// re-associating inherited file descriptors with their original
// addresses. Same out-of-scope contract as NewFunc.
type ResumeFunc func(saved SavedListeners, sink Sink) (Collection, error)
