package netstate

import (
	"fmt"
	"strings"

	"github.com/cuemby/ircfed/pkg/ircid"
)

// normalizeNick implements a simplified casemap, a deliberate
// departure from full RFC 1459 casemapping: no {}|^ <-> []\~ folding,
// ASCII lowercasing only.
func normalizeNick(nick string) string {
	return strings.ToLower(nick)
}

// normalizeChannelName applies the same simplified casemap to channel
// names.
func normalizeChannelName(name string) string {
	return strings.ToLower(name)
}

// fallbackNick derives a deterministic replacement nickname for the
// losing side of a nick clash from the loser's own creating event id, so
// every node computes the same fallback without further coordination
// (the concurrent-nick-clash scenario).
func fallbackNick(base string, loserID ircid.EventID) string {
	return fmt.Sprintf("%s_%d", base, loserID.Seq)
}
