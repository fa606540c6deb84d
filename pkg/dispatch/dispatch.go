// Package dispatch turns a raw line of client input into zero or more
// events against the event log. A link-time-populated command registry
// is re-expressed here as an explicit static table of (name, handler)
// pairs initialised once at startup — that table is Table below.
//
// Grounded on the command-tree shape in cmd/warren/main.go
// (a fixed set of named subcommands, each a small RunE closure over
// shared state) generalised from cobra's CLI registration to an
// in-process verb table, since commands here arrive as IRC protocol
// lines rather than argv.
package dispatch

import (
	"strings"

	"github.com/cuemby/ircfed/pkg/eventlog"
	"github.com/cuemby/ircfed/pkg/history"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/netstate"
	"github.com/cuemby/ircfed/pkg/servernode"
)

// Queryer is the read-only state surface a handler needs to validate
// and resolve a command before originating events. servernode.ServerNode
// satisfies it.
type Queryer interface {
	User(ircid.ObjectID) (netstate.User, bool)
	UserByNick(string) (netstate.User, bool)
	Channel(ircid.ObjectID) (netstate.Channel, bool)
	ChannelByName(string) (netstate.Channel, bool)
	MembersOf(ircid.ObjectID) []ircid.ObjectID
	ChannelsOf(ircid.ObjectID) []ircid.ObjectID
	Membership(ircid.ObjectID) (netstate.Membership, bool)
	EntriesForUser(ircid.ObjectID) []history.HistoryLogEntry
	EntriesForUserReverse(ircid.ObjectID) []history.HistoryLogEntry

	// Synchronizing reports whether the node is still holding for a
	// quorum of peer replies after a (re)join; see Table.Handle.
	Synchronizing() bool
}

// Sender delivers a protocol-level reply (an IRC numeric or a message
// line) to one connection. pkg/listener's connection handle implements
// this; tests use a recording fake.
type Sender interface {
	Send(conn ircid.ObjectID, line string)
}

// Handler reacts to one parsed command line from a single connection.
// conn identifies the originating connection; user is that connection's
// registered identity, the zero ObjectID before NICK/USER registration
// completes.
type Handler func(h *HandlerContext)

// HandlerContext bundles everything a Handler needs: the raw command,
// the connection and (if registered) user originating it, and the
// collaborators it's allowed to touch.
type HandlerContext struct {
	Conn ircid.ObjectID
	User ircid.ObjectID
	Args []string
	Log  *eventlog.EventLog
	Query Queryer
	Send Sender
}

func (h *HandlerContext) reply(line string) {
	if h.Send != nil {
		h.Send.Send(h.Conn, line)
	}
}

// sendBatch delivers a CHATHISTORY result as an IRCv3-style labelled
// batch: a BATCH start line, one PRIVMSG/NOTICE-shaped line per entry,
// and a BATCH end line. Full tag/capability-aware framing belongs to
// the out-of-scope wire formatter; this is the structural shape
// a replay result needs: a []HistoryLogEntry plus a BatchID.
func (h *HandlerContext) sendBatch(sub, target string, entries []history.HistoryLogEntry) {
	batchID := sub + ":" + target
	h.reply("BATCH +" + batchID + " chathistory " + target)
	for _, e := range entries {
		if e.Details.Kind != netstate.ChangeMessage {
			continue
		}
		m := e.Details.Message
		h.reply(string(m.Kind) + " " + target + " :" + m.Text)
	}
	h.reply("BATCH -" + batchID)
}

// Table is the static verb->Handler registry. It also tracks the conn->user registration pkg/dispatch itself
// owns, since nothing upstream of it needs to know a connection's
// identity before registration completes.
type Table struct {
	handlers map[string]Handler

	query Queryer
	send  Sender

	// connUser maps a connection to its registered user object, once
	// NICK+USER both complete. Reads and writes happen only from the
	// server task's single goroutine (servernode.Run calls
	// Dispatcher.Handle serially), so no lock is needed here.
	connUser map[ircid.ObjectID]ircid.ObjectID
	pendingNick map[ircid.ObjectID]string
}

// New constructs a Table with the standard command set registered.
func New(query Queryer, send Sender) *Table {
	t := &Table{
		handlers:    make(map[string]Handler),
		query:       query,
		send:        send,
		connUser:    make(map[ircid.ObjectID]ircid.ObjectID),
		pendingNick: make(map[ircid.ObjectID]string),
	}
	t.Register("NICK", t.handleNick)
	t.Register("USER", t.handleUser)
	t.Register("JOIN", t.handleJoin)
	t.Register("PART", t.handlePart)
	t.Register("PRIVMSG", t.handlePrivmsg)
	t.Register("NOTICE", t.handleNotice)
	t.Register("QUIT", t.handleQuit)
	t.Register("CHATHISTORY", t.handleChathistory)
	return t
}

// Register binds a verb to a handler, overwriting any prior binding.
// Exposed so commands can be added to the static table at startup
// without editing New.
func (t *Table) Register(verb string, h Handler) {
	t.handlers[strings.ToUpper(verb)] = h
}

// Handle implements servernode.Dispatcher: it parses one ClientEvent
// line and runs the matching verb's Handler, originating events against
// log. Unknown verbs and malformed lines are silently dropped here —
// the handler itself is responsible for any client-visible numeric.
func (t *Table) Handle(ce servernode.ClientEvent, log *eventlog.EventLog) {
	switch ce.Kind {
	case servernode.ClientDisconnected:
		t.handleDisconnect(ce.Connection, log)
		return
	case servernode.ClientConnected:
		return
	case servernode.ClientLine:
		// fall through to line dispatch below
	default:
		return
	}

	verb, rest := splitVerb(ce.Line)
	h, ok := t.handlers[verb]
	if !ok {
		return
	}
	// NICK/USER still run during the synchronizing window so a
	// connection can register; every other verb consults shared network
	// or history state that a quorum of peers hasn't confirmed yet, so
	// it's held off rather than answered from a possibly-incomplete view.
	if verb != "NICK" && verb != "USER" && t.query.Synchronizing() {
		if t.send != nil {
			t.send.Send(ce.Connection, "NOTICE * :server synchronizing with peers, please retry shortly")
		}
		return
	}
	h(&HandlerContext{
		Conn:  ce.Connection,
		User:  t.connUser[ce.Connection],
		Args:  splitArgs(rest),
		Log:   log,
		Query: t.query,
		Send:  t.send,
	})
}

func splitVerb(line string) (verb, rest string) {
	verb, rest, _ = strings.Cut(strings.TrimSpace(line), " ")
	return strings.ToUpper(verb), rest
}

// splitArgs implements just enough of RFC 1459 parameter parsing for
// command dispatch: space-separated tokens, with a leading ':' token
// taking the rest of the line verbatim (the trailing parameter).
func splitArgs(rest string) []string {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}
	if idx := strings.Index(rest, " :"); idx >= 0 {
		args := strings.Fields(rest[:idx])
		return append(args, rest[idx+2:])
	}
	if strings.HasPrefix(rest, ":") {
		return []string{rest[1:]}
	}
	return strings.Fields(rest)
}
