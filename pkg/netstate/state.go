package netstate

import (
	"sync"

	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/rs/zerolog"
)

// User mirrors the network state's User record.
type User struct {
	ID         ircid.ObjectID
	Nick       string
	User       string
	Host       string
	Realname   string
	HomeServer ircid.ServerID
	Modes      map[ircevent.ModeChar]struct{}
	AwayReason *string
	Account    *string
}

// Channel mirrors the network state's Channel record.
type Channel struct {
	ID         ircid.ObjectID
	Name       string
	Topic      string
	TopicSetBy ircid.ObjectID
	HasTopic   bool
	Modes      map[ircevent.ModeChar]struct{}
	ListModes  map[ircevent.ListModeType]map[string]ircid.ObjectID // pattern -> entry id
}

// Membership mirrors the network state's Membership record, keyed by the
// synthesised MembershipID (user, channel) pair for referential lookup,
// and by its own ObjectID for event targeting.
type Membership struct {
	ID          ircid.ObjectID
	User        ircid.ObjectID
	Channel     ircid.ObjectID
	Permissions map[ircevent.ModeChar]struct{}
}

// ServerMeta tracks a live peer node.
type ServerMeta struct {
	ID    ircid.ObjectID
	Name  string
	Epoch ircid.EpochID
}

// ListModeEntry is one ban/except/invex pattern on a channel.
type ListModeEntry struct {
	ID      ircid.ObjectID
	Channel ircid.ObjectID
	Type    ircevent.ListModeType
	Pattern string
	SetBy   ircid.ObjectID
}

// Invite records an invitation of a user to an invite-only channel.
type Invite struct {
	ID      ircid.ObjectID
	User    ircid.ObjectID
	Channel ircid.ObjectID
	By      ircid.ObjectID
}

// AuditEntry is an operator-visible audit record; its history emitter is
// a no-op per DESIGN.md's Open Question decision #2.
type AuditEntry struct {
	ID      ircid.ObjectID
	Message string
	By      ircid.ObjectID
}

// nickOwner tracks which event currently "assigned" a normalised nick,
// so concurrent clashes can be resolved deterministically by comparing
// the assigning event ids rather than the owning user's creation id.
type nickOwner struct {
	user       ircid.ObjectID
	assignedBy ircid.EventID
}

// State is the arena-of-ids network state graph. It holds
// no owning pointers between entities — every relationship is a typed
// id — so save/restore (pkg/snapshot) and referential-integrity checks
// are both trivial table lookups.
//
// State is guarded by an RWMutex: Apply (the only writer) is called only
// from the server task; concurrent readers use RLock via the
// query helpers below.
type State struct {
	mu sync.RWMutex

	users     map[ircid.ObjectID]*User
	nickIndex map[string]nickOwner

	channels        map[ircid.ObjectID]*Channel
	nameIndex       map[string]ircid.ObjectID
	channelRedirect map[ircid.ObjectID]ircid.ObjectID // losing channel id -> winner

	memberships     map[ircid.ObjectID]*Membership
	membershipIndex map[ircid.MembershipID]ircid.ObjectID
	userMembers     map[ircid.ObjectID]map[ircid.ObjectID]struct{} // user -> membership ids
	channelMembers  map[ircid.ObjectID]map[ircid.ObjectID]struct{} // channel -> membership ids

	servers        map[ircid.ObjectID]*ServerMeta
	serverByID     map[ircid.ServerID]ircid.ObjectID
	listModes      map[ircid.ObjectID]*ListModeEntry
	invites        map[ircid.ObjectID]*Invite
	auditEntries   map[ircid.ObjectID]*AuditEntry

	metrics Metrics
	log     zerolog.Logger
}

// New constructs an empty State.
func New(metrics Metrics, logger zerolog.Logger) *State {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &State{
		users:           make(map[ircid.ObjectID]*User),
		nickIndex:       make(map[string]nickOwner),
		channels:        make(map[ircid.ObjectID]*Channel),
		nameIndex:       make(map[string]ircid.ObjectID),
		channelRedirect: make(map[ircid.ObjectID]ircid.ObjectID),
		memberships:     make(map[ircid.ObjectID]*Membership),
		membershipIndex: make(map[ircid.MembershipID]ircid.ObjectID),
		userMembers:     make(map[ircid.ObjectID]map[ircid.ObjectID]struct{}),
		channelMembers:  make(map[ircid.ObjectID]map[ircid.ObjectID]struct{}),
		servers:         make(map[ircid.ObjectID]*ServerMeta),
		serverByID:      make(map[ircid.ServerID]ircid.ObjectID),
		listModes:       make(map[ircid.ObjectID]*ListModeEntry),
		invites:         make(map[ircid.ObjectID]*Invite),
		auditEntries:    make(map[ircid.ObjectID]*AuditEntry),
		metrics:         metrics,
		log:             logger,
	}
}

// --- read-only query helpers (RLock) ---

// User returns a copy of the user record for id, if present.
func (s *State) User(id ircid.ObjectID) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// UserByNick resolves a (case-normalised) nickname to a user, per the
// global nick-uniqueness invariant.
func (s *State) UserByNick(nick string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.nickIndex[normalizeNick(nick)]
	if !ok {
		return User{}, false
	}
	u, ok := s.users[owner.user]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Channel returns a copy of the channel record for id, resolving any
// creation-race redirect first.
func (s *State) Channel(id ircid.ObjectID) (Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.channels[s.resolveChannelLocked(id)]
	if !ok {
		return Channel{}, false
	}
	return *c, true
}

// ChannelByName resolves a (case-normalised) channel name.
func (s *State) ChannelByName(name string) (Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nameIndex[normalizeChannelName(name)]
	if !ok {
		return Channel{}, false
	}
	c, ok := s.channels[id]
	if !ok {
		return Channel{}, false
	}
	return *c, true
}

// UserCount returns the number of users currently known.
func (s *State) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// ChannelCount returns the number of channels currently known.
func (s *State) ChannelCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}

// MembersOf returns the membership ids of a channel.
func (s *State) MembersOf(channel ircid.ObjectID) []ircid.ObjectID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channel = s.resolveChannelLocked(channel)
	set := s.channelMembers[channel]
	out := make([]ircid.ObjectID, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	return out
}

// ChannelsOf returns the membership ids a user currently holds.
func (s *State) ChannelsOf(user ircid.ObjectID) []ircid.ObjectID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.userMembers[user]
	out := make([]ircid.ObjectID, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	return out
}

// Membership looks a membership up by its object id.
func (s *State) Membership(id ircid.ObjectID) (Membership, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[id]
	if !ok {
		return Membership{}, false
	}
	return *m, true
}

func (s *State) resolveChannelLocked(id ircid.ObjectID) ircid.ObjectID {
	for {
		next, redirected := s.channelRedirect[id]
		if !redirected {
			return id
		}
		id = next
	}
}
