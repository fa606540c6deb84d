package dispatch

import (
	"strconv"
	"strings"

	"github.com/cuemby/ircfed/pkg/chathistory"
	"github.com/cuemby/ircfed/pkg/eventlog"
	"github.com/cuemby/ircfed/pkg/history"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
)

// handleNick implements the two-step NICK/USER registration: NICK alone
// records the desired nick and waits for USER; if the user already
// exists, it originates a UserNickChange instead.
func (t *Table) handleNick(h *HandlerContext) {
	if len(h.Args) < 1 {
		h.reply("431 * :No nickname given")
		return
	}
	nick := h.Args[0]

	if h.User.Zero() {
		if _, taken := h.Query.UserByNick(nick); taken {
			h.reply("433 * " + nick + " :Nickname is already in use")
			return
		}
		t.pendingNick[h.Conn] = nick
		return
	}

	h.Log.NewEvent(h.User, ircevent.DetailsUserNickChange(ircevent.UserNickChange{NewNick: nick}))
}

// handleUser completes registration: it originates the NewUser creation
// event and remembers the resulting object id against this connection.
func (t *Table) handleUser(h *HandlerContext) {
	if !h.User.Zero() {
		return // already registered
	}
	nick, ok := t.pendingNick[h.Conn]
	if !ok {
		h.reply("451 * :You have not registered")
		return
	}
	if len(h.Args) < 4 {
		h.reply("461 * USER :Not enough parameters")
		return
	}
	username, realname := h.Args[0], h.Args[3]

	id, _ := h.Log.NewCreationEvent(ircid.ObjectUser, func(ircid.EventID) ircevent.EventDetails {
		return ircevent.DetailsNewUser(ircevent.NewUser{Nick: nick, User: username, Realname: realname})
	})
	delete(t.pendingNick, h.Conn)
	t.connUser[h.Conn] = id
}

// handleJoin resolves or implicitly creates the named channel, then
// originates the membership that joins it.
func (t *Table) handleJoin(h *HandlerContext) {
	if h.User.Zero() || len(h.Args) < 1 {
		return
	}
	name := h.Args[0]

	ch, ok := h.Query.ChannelByName(name)
	var channelID ircid.ObjectID
	if ok {
		channelID = ch.ID
	} else {
		channelID, _ = h.Log.NewCreationEvent(ircid.ObjectChannel, func(ircid.EventID) ircevent.EventDetails {
			return ircevent.DetailsNewChannel(ircevent.NewChannel{Name: name})
		})
	}

	h.Log.NewCreationEvent(ircid.ObjectMembership, func(ircid.EventID) ircevent.EventDetails {
		return ircevent.DetailsChannelJoin(ircevent.ChannelJoin{User: h.User, Channel: channelID})
	})
}

// handlePart finds the user's membership in the named channel and
// originates its removal.
func (t *Table) handlePart(h *HandlerContext) {
	if h.User.Zero() || len(h.Args) < 1 {
		return
	}
	ch, ok := h.Query.ChannelByName(h.Args[0])
	if !ok {
		h.reply("403 * " + h.Args[0] + " :No such channel")
		return
	}
	reason := ""
	if len(h.Args) > 1 {
		reason = h.Args[1]
	}

	membershipID, ok := t.findMembership(h, h.User, ch.ID)
	if !ok {
		h.reply("442 * " + h.Args[0] + " :You're not on that channel")
		return
	}
	h.Log.NewEvent(membershipID, ircevent.DetailsChannelPart(ircevent.ChannelPart{Reason: reason}))
}

func (t *Table) findMembership(h *HandlerContext, user, channel ircid.ObjectID) (ircid.ObjectID, bool) {
	for _, mID := range h.Query.ChannelsOf(user) {
		m, ok := h.Query.Membership(mID)
		if ok && m.Channel == channel {
			return mID, true
		}
	}
	return ircid.ObjectID{}, false
}

func (t *Table) handlePrivmsg(h *HandlerContext) { t.sendMessage(h, ircevent.MessagePrivmsg) }
func (t *Table) handleNotice(h *HandlerContext)  { t.sendMessage(h, ircevent.MessageNotice) }

// sendMessage resolves the target (channel or nick) and originates a
// NewMessage, shared by PRIVMSG and NOTICE (NewMessage.Kind
// is what tells the reducer/history log which one it was).
func (t *Table) sendMessage(h *HandlerContext, kind ircevent.MessageKind) {
	if h.User.Zero() || len(h.Args) < 2 {
		return
	}
	targetName, text := h.Args[0], h.Args[1]

	var target ircid.ObjectID
	if ch, ok := h.Query.ChannelByName(targetName); ok {
		target = ch.ID
	} else if u, ok := h.Query.UserByNick(targetName); ok {
		target = u.ID
	} else {
		if kind == ircevent.MessagePrivmsg {
			h.reply("401 * " + targetName + " :No such nick/channel")
		}
		return
	}

	h.Log.NewCreationEvent(ircid.ObjectMessage, func(ircid.EventID) ircevent.EventDetails {
		return ircevent.DetailsNewMessage(ircevent.NewMessage{From: h.User, To: target, Kind: kind, Text: text})
	})
}

// handleQuit originates the user's departure; handleDisconnect (called
// on connection loss regardless of whether QUIT was sent) does the
// same thing, so a client that just vanishes is still cleaned up.
func (t *Table) handleQuit(h *HandlerContext) {
	if h.User.Zero() {
		return
	}
	reason := "Client quit"
	if len(h.Args) > 0 {
		reason = h.Args[0]
	}
	t.quit(h.User, reason, h.Log)
	delete(t.connUser, h.Conn)
}

func (t *Table) handleDisconnect(conn ircid.ObjectID, log *eventlog.EventLog) {
	defer delete(t.connUser, conn)
	defer delete(t.pendingNick, conn)
	user, ok := t.connUser[conn]
	if !ok {
		return
	}
	t.quit(user, "Connection reset", log)
}

func (t *Table) quit(user ircid.ObjectID, reason string, log *eventlog.EventLog) {
	log.NewEvent(user, ircevent.DetailsUserQuit(ircevent.UserQuit{Reason: reason}))
}

// handleChathistory implements the BEFORE/AFTER/AROUND/BETWEEN/LATEST/TARGETS
// sub-commands of the IRCv3 CHATHISTORY extension, replaying
// pkg/chathistory's pure query functions over the caller's own visible
// history entries.
func (t *Table) handleChathistory(h *HandlerContext) {
	if h.User.Zero() || len(h.Args) < 1 {
		return
	}
	sub := strings.ToUpper(h.Args[0])
	rest := h.Args[1:]

	if sub == "TARGETS" {
		since := parseInt64(arg(rest, 1), 0)
		limit := int(parseInt64(arg(rest, 2), 0))
		sightings := chathistory.Targets(h.Query.EntriesForUserReverse(h.User), h.User, since, limit)
		for _, s := range sightings {
			h.reply("CHATHISTORY TARGETS " + s.Target.String() + " " + strconv.FormatInt(s.Latest, 10))
		}
		return
	}

	targetName := arg(rest, 0)
	target, ok := t.resolveTarget(h, targetName)
	if !ok {
		h.reply("403 * " + targetName + " :No such nick/channel")
		return
	}

	entries := chathistory.FilterByTarget(h.Query.EntriesForUser(h.User), h.User, target)
	limit := int(parseInt64(arg(rest, len(rest)-1), 50))

	var batch []history.HistoryLogEntry
	switch sub {
	case "BEFORE":
		batch = chathistory.Before(entries, parseInt64(arg(rest, 1), 0), limit)
	case "AFTER":
		batch = chathistory.After(entries, parseInt64(arg(rest, 1), 0), limit)
	case "AROUND":
		batch = chathistory.Around(entries, parseInt64(arg(rest, 1), 0), limit)
	case "BETWEEN":
		batch = chathistory.Between(entries, parseInt64(arg(rest, 1), 0), parseInt64(arg(rest, 2), 0), limit)
	case "LATEST":
		batch = chathistory.Latest(entries, limit)
	default:
		return
	}

	h.sendBatch(sub, targetName, batch)
}

func (t *Table) resolveTarget(h *HandlerContext, name string) (ircid.ObjectID, bool) {
	if ch, ok := h.Query.ChannelByName(name); ok {
		return ch.ID, true
	}
	if u, ok := h.Query.UserByNick(name); ok {
		return u.ID, true
	}
	return ircid.ObjectID{}, false
}

func arg(args []string, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}
