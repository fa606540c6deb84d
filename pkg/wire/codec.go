package wire

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
)

// EncodeEvent renders an event to its gossip wire bytes. A malformed
// Event (e.g. Kind not matching any populated field) is a programmer
// error in the originating node, not a wire-level concern, so this never
// fails in practice; the error return exists for json.Marshal's
// contract and SerializationError callers that wrap arbitrary input.
func EncodeEvent(e ircevent.Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("wire: encode event: %w", err)
	}
	return data, nil
}

// DecodeEvent parses wire bytes into an Event. A decode failure is a
// SerializationError: malformed wire bytes, logged and dropped
// by the caller rather than propagated.
func DecodeEvent(data []byte) (ircevent.Event, error) {
	var e ircevent.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return ircevent.Event{}, fmt.Errorf("wire: decode event: %w", err)
	}
	return e, nil
}

// SyncRequest is broadcast by a node entering the synchronizing state on
// join or rejoin: it carries the requester's local clock so peers can
// compute and reply with whatever events it is missing.
type SyncRequest struct {
	FromServer ircid.ServerID
	Clock      ircclock.EventClock
}

// SyncReply carries the events a peer believes the requester is missing,
// found by comparing the requester's clock against its journal of
// recently emitted events (eventlog.EventsSince). FromServer names the replying peer, so a requester waiting on
// multiple replies can tell which distinct peers have answered.
type SyncReply struct {
	ToServer   ircid.ServerID
	FromServer ircid.ServerID
	Events     []ircevent.Event
}

func EncodeSyncRequest(r SyncRequest) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("wire: encode sync request: %w", err)
	}
	return data, nil
}

func DecodeSyncRequest(data []byte) (SyncRequest, error) {
	var r SyncRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return SyncRequest{}, fmt.Errorf("wire: decode sync request: %w", err)
	}
	return r, nil
}

func EncodeSyncReply(r SyncReply) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("wire: encode sync reply: %w", err)
	}
	return data, nil
}

func DecodeSyncReply(data []byte) (SyncReply, error) {
	var r SyncReply
	if err := json.Unmarshal(data, &r); err != nil {
		return SyncReply{}, fmt.Errorf("wire: decode sync reply: %w", err)
	}
	return r, nil
}
