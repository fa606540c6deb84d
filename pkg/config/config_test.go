package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ircfed.yaml")
	if err := os.WriteFile(path, []byte("server:\n  name: irc1\n  id: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Name != "irc1" {
		t.Errorf("Server.Name = %q, want irc1", cfg.Server.Name)
	}
	if cfg.EventLog.JournalCapacity != 8192 {
		t.Errorf("EventLog.JournalCapacity = %d, want 8192 (default)", cfg.EventLog.JournalCapacity)
	}
	if cfg.Gossip.SyncTimeout != 5*time.Second {
		t.Errorf("Gossip.SyncTimeout = %v, want 5s (default)", cfg.Gossip.SyncTimeout)
	}
	if cfg.Listener.Addr != ":6667" {
		t.Errorf("Listener.Addr = %q, want :6667 (default)", cfg.Listener.Addr)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ircfed.yaml")
	body := "server:\n  name: irc1\n  id: 1\nevent_log:\n  pending_capacity: 64\nlistener:\n  addr: \":6697\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.EventLog.PendingCapacity != 64 {
		t.Errorf("EventLog.PendingCapacity = %d, want 64", cfg.EventLog.PendingCapacity)
	}
	if cfg.Listener.Addr != ":6697" {
		t.Errorf("Listener.Addr = %q, want :6697", cfg.Listener.Addr)
	}
}

func TestLoadRequiresServerName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ircfed.yaml")
	if err := os.WriteFile(path, []byte("server:\n  id: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() with missing server.name should return an error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with missing file should return an error")
	}
}
