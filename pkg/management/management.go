// Package management implements the local-only management plane:
// a unix-domain socket accepting textual control commands
// (shutdown, rehash, upgrade-in-place), exiting 0 on clean shutdown.
//
// Grounded on pkg/api's pattern of a long-lived server object
// wrapping a net.Listener and dispatching to handler functions
// (pkg/api/server.go), but over a plain unix socket with a line-based
// text protocol instead of gRPC+mTLS: the original gRPC service is
// generated from a .proto file compiled by protoc, unavailable here,
// and a local-only control plane calls for a textual protocol on a
// local-only socket, not a network RPC surface — see DESIGN.md's
// dropped-dependency entry for google.golang.org/grpc.
package management

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Command is one line of input from the management socket, already
// split into its verb and the remainder of the line.
type Command struct {
	Verb string
	Args string
}

// Handler executes a Command and returns the single-line text response
// to write back to the caller.
type Handler func(Command) string

// Server listens on a unix socket and dispatches each connection's
// newline-terminated commands to a registered Handler.
type Server struct {
	socketPath string
	listener   net.Listener
	handlers   map[string]Handler
	mu         sync.RWMutex
	log        zerolog.Logger
}

// New constructs a Server bound to socketPath. Any stale socket file
// left behind by an unclean shutdown is removed first.
func New(socketPath string, logger zerolog.Logger) (*Server, error) {
	_ = os.Remove(socketPath)

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("management: listen %s: %w", socketPath, err)
	}
	return &Server{
		socketPath: socketPath,
		listener:   ln,
		handlers:   make(map[string]Handler),
		log:        logger,
	}, nil
}

// Register binds a verb (case-insensitive) to a handler. It takes the
// server's lock, so it may be called before or after Serve starts.
func (s *Server) Register(verb string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[strings.ToUpper(verb)] = h
}

// Serve accepts connections until the listener is closed, handling each
// on its own goroutine. Returns nil when Close causes Accept to fail,
// any other error otherwise.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if isClosedErr(err) {
				return nil
			}
			return fmt.Errorf("management: accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd := parseCommand(line)
		resp := s.dispatch(cmd)
		if _, err := fmt.Fprintln(conn, resp); err != nil {
			s.log.Debug().Err(err).Msg("management: write response failed")
			return
		}
	}
}

func (s *Server) dispatch(cmd Command) string {
	s.mu.RLock()
	h, ok := s.handlers[cmd.Verb]
	s.mu.RUnlock()
	if !ok {
		return "ERR unknown command " + cmd.Verb
	}
	return h(cmd)
}

func parseCommand(line string) Command {
	verb, args, _ := strings.Cut(line, " ")
	return Command{Verb: strings.ToUpper(verb), Args: strings.TrimSpace(args)}
}

// Close stops accepting new connections and removes the socket file.
func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.socketPath)
	return err
}

func isClosedErr(err error) bool {
	return strings.Contains(err.Error(), "use of closed network connection")
}
