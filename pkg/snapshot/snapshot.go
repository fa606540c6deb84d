// Package snapshot implements opt-in SavedState persistence. It is the
// only component that writes to disk: the live event log, network
// state, and history log are in-memory only — a process crash is a
// full restart, not a disk-recovered one, unless an operator explicitly
// asks for a save.
//
// Grounded on pkg/storage/boltdb.go: a bbolt-backed store,
// JSON-marshalling each record before Put. Generalised from "many
// buckets, one record type per bucket" to "one bucket, one blob",
// because the snapshot is a single tagged container
// consumed only by the same build — there is no cross-record querying
// need that would justify bbolt's per-key indexing here.
package snapshot

import (
	"encoding/json"

	"github.com/cuemby/ircfed/pkg/eventlog"
	"github.com/cuemby/ircfed/pkg/history"
	"github.com/cuemby/ircfed/pkg/ircerr"
	"github.com/cuemby/ircfed/pkg/netstate"
	bolt "go.etcd.io/bbolt"
)

var bucketSnapshot = []byte("snapshot")
var keySavedState = []byte("saved_state")

// SavedState mirrors the persisted snapshot container. Listener,
// auth, and connection state are collaborator concerns (pkg/listener,
// pkg/management) this package does not own; it carries them as opaque
// fields so a full round-trip doesn't require this package to know
// their shape.
type SavedState struct {
	EventLog    eventlog.SavedEventLog
	Network     netstate.SavedState
	History     []history.HistoryLogEntry
	Listeners   json.RawMessage `json:",omitempty"`
	Auth        json.RawMessage `json:",omitempty"`
	Connections json.RawMessage `json:",omitempty"`
}

// Store is a bbolt-backed holder for a single SavedState blob.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the snapshot file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, ircerr.New(ircerr.IoError, "snapshot.Open", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSnapshot)
		return err
	})
	if err != nil {
		db.Close()
		return nil, ircerr.New(ircerr.IoError, "snapshot.Open", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save marshals and persists state, replacing whatever was saved
// before. Snapshots are consumed only by the same build —
// no schema versioning is attempted.
func (s *Store) Save(state SavedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return ircerr.New(ircerr.SerializationError, "snapshot.Save", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshot).Put(keySavedState, data)
	})
	if err != nil {
		return ircerr.New(ircerr.IoError, "snapshot.Save", err)
	}
	return nil
}

// Load reads back a previously Saved state. ok is false if no
// snapshot has ever been written, which is the normal case for a
// node's first start.
func (s *Store) Load() (state SavedState, ok bool, err error) {
	var data []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSnapshot).Get(keySavedState)
		if v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return SavedState{}, false, ircerr.New(ircerr.IoError, "snapshot.Load", err)
	}
	if data == nil {
		return SavedState{}, false, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return SavedState{}, false, ircerr.New(ircerr.SerializationError, "snapshot.Load", err)
	}
	return state, true, nil
}

// Rebuilding an EventLog/State/Log from a loaded SavedState goes through
// eventlog.Restore, netstate.Restore, and history.Restore directly — each
// already takes the Metrics/logger a running node constructs for its live
// components, which this package has no reason to duplicate. Nothing in
// this module calls them at startup: servernode.New always builds fresh
// components, so a loaded SavedState is not restored into the node.
