package metrics

import (
	"time"

	"github.com/cuemby/ircfed/pkg/servernode"
)

// Collector periodically samples gauges off a live ServerNode, since
// those counts reflect current state rather than something the reducer
// can cheaply increment/decrement on every event (a part leaves one
// channel but the user may still exist elsewhere).
type Collector struct {
	node   *servernode.ServerNode
	stopCh chan struct{}
}

// NewCollector creates a metrics collector bound to a server node.
func NewCollector(node *servernode.ServerNode) *Collector {
	return &Collector{
		node:   node,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	UsersTotal.Set(float64(c.node.UserCount()))
	ChannelsTotal.Set(float64(c.node.ChannelCount()))
	HistoryLogSize.Set(float64(c.node.HistoryLogSize()))
}
