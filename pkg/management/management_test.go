package management

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "mgmt.sock")
	srv, err := New(socketPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })
	return srv, socketPath
}

func sendCommand(t *testing.T, socketPath, line string) string {
	t.Helper()
	conn, err := net.DialTimeout("unix", socketPath, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	return resp
}

func TestUnknownCommandReturnsError(t *testing.T) {
	_, socketPath := newTestServer(t)
	resp := sendCommand(t, socketPath, "FROB")
	if resp[:3] != "ERR" {
		t.Errorf("response = %q, want ERR prefix", resp)
	}
}

type fakeShutdowner struct{ called bool }

func (f *fakeShutdowner) Shutdown() { f.called = true }

func TestShutdownCommandInvokesNode(t *testing.T) {
	srv, socketPath := newTestServer(t)
	node := &fakeShutdowner{}
	srv.RegisterShutdown(node)

	resp := sendCommand(t, socketPath, "SHUTDOWN")
	if resp[:2] != "OK" {
		t.Errorf("response = %q, want OK prefix", resp)
	}
	if !node.called {
		t.Error("Shutdown() was not called on the node")
	}
}

func TestCommandVerbIsCaseInsensitive(t *testing.T) {
	srv, socketPath := newTestServer(t)
	node := &fakeShutdowner{}
	srv.RegisterShutdown(node)

	resp := sendCommand(t, socketPath, "shutdown")
	if resp[:2] != "OK" {
		t.Errorf("response = %q, want OK prefix", resp)
	}
}
