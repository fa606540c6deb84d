package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/cuemby/ircfed/pkg/eventlog"
	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/netstate"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ircfed.snapshot")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	want := SavedState{
		EventLog: eventlog.SavedEventLog{Seen: ircclock.New()},
		Network:  netstate.SavedState{},
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load() ok = false, want true after Save")
	}
	if len(got.Network.Users) != 0 {
		t.Errorf("Network.Users = %v, want empty", got.Network.Users)
	}
}

func TestLoadWithoutSaveReturnsNotOK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ircfed.snapshot")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	_, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Error("Load() ok = true on an empty store, want false")
	}
}

func TestSaveReplacesPreviousState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ircfed.snapshot")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	first := SavedState{Network: netstate.SavedState{Channels: []netstate.Channel{{Name: "#first"}}}}
	second := SavedState{Network: netstate.SavedState{Channels: []netstate.Channel{{Name: "#second"}}}}

	if err := store.Save(first); err != nil {
		t.Fatalf("Save(first): %v", err)
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("Save(second): %v", err)
	}

	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if len(got.Network.Channels) != 1 || got.Network.Channels[0].Name != "#second" {
		t.Errorf("Load() after second Save = %+v, want single #second channel", got.Network.Channels)
	}
}
