package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/ircfed/pkg/config"
	"github.com/cuemby/ircfed/pkg/dispatch"
	"github.com/cuemby/ircfed/pkg/eventlog"
	"github.com/cuemby/ircfed/pkg/history"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/log"
	"github.com/cuemby/ircfed/pkg/management"
	"github.com/cuemby/ircfed/pkg/metrics"
	"github.com/cuemby/ircfed/pkg/replicator"
	"github.com/cuemby/ircfed/pkg/servernode"
	"github.com/cuemby/ircfed/pkg/snapshot"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ircfed",
	Short:   "ircfed - federated IRCv3 chat server node",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("ircfed version %s\nCommit: %s\n", Version, Commit))
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run this server node",
	RunE:  runNode,
}

func init() {
	runCmd.Flags().String("config", "/etc/ircfed/config.yaml", "Path to the node's YAML config file")
	runCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address the metrics/health HTTP endpoint binds to")
	runCmd.Flags().String("snapshot", "", "Path to a bbolt snapshot file; when set, state is restored from it at startup and saved to it at shutdown")
}

func runNode(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	snapshotPath, _ := cmd.Flags().GetString("snapshot")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Init(log.Config{Level: cfg.LogLevel(), JSONOutput: cfg.Log.JSONOutput})
	logger := log.Logger
	logger.Info().Str("server", cfg.Server.Name).Msg("starting ircfed")

	var snapStore *snapshot.Store
	var saved snapshot.SavedState
	var hasSaved bool
	if snapshotPath != "" {
		snapStore, err = snapshot.Open(snapshotPath)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		defer snapStore.Close()

		saved, hasSaved, err = snapStore.Load()
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
	}

	node := buildNode(cfg, saved, hasSaved, logger)

	repl, err := replicator.New(
		replicator.Config{
			NodeName:    cfg.Server.Name,
			BindAddr:    cfg.Gossip.BindAddr,
			BindPort:    cfg.Gossip.BindPort,
			Peers:       cfg.Gossip.Peers,
			SyncTimeout: cfg.Gossip.SyncTimeout,
		},
		cfg.Server.ID,
		node.EventLog(),
		metrics.ReplicatorAdapter{},
		log.WithComponent("replicator"),
	)
	if err != nil {
		return fmt.Errorf("start replicator: %w", err)
	}
	node.AttachReplicator(repl)

	table := dispatch.New(node, noopSender{})
	node.AttachDispatcher(table)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nodeDone := make(chan struct{})
	go func() {
		node.Run(ctx)
		close(nodeDone)
	}()
	go repl.Run(ctx)
	if n, err := repl.Join(cfg.Gossip.Peers); err != nil {
		logger.Warn().Err(err).Msg("failed to join gossip peers")
	} else {
		logger.Info().Int("joined", n).Msg("joined gossip cluster")
	}

	syncCtx, syncCancel := context.WithTimeout(ctx, cfg.Gossip.SyncTimeout)
	if err := repl.SyncToNetwork(syncCtx); err != nil {
		logger.Warn().Err(err).Msg("sync_to_network did not converge before deadline; proceeding in degraded mode")
	}
	syncCancel()

	// Re-run SyncToNetwork on an interval so a node that only reached a
	// partial quorum at startup, or that joined mid-partition, catches up
	// without needing a restart.
	go repl.SyncTask(ctx, cfg.Gossip.SyncInterval)

	collector := metrics.NewCollector(node)
	collector.Start()
	metrics.RegisterComponent("eventlog", true, "running")
	metrics.RegisterComponent("replicator", true, "running")
	metrics.RegisterComponent("listener", false, "not wired in this build")

	go serveMetrics(metricsAddr, logger)

	mgmt, err := management.New(cfg.Management.SocketPath, log.WithComponent("management"))
	if err != nil {
		return fmt.Errorf("start management socket: %w", err)
	}
	mgmt.RegisterShutdown(node)
	mgmt.RegisterRehash(rehasher{configPath: configPath})
	mgmt.RegisterUpgrade(notImplementedUpgrader{})
	go func() {
		if err := mgmt.Serve(); err != nil {
			logger.Warn().Err(err).Msg("management socket stopped")
		}
	}()
	defer mgmt.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-nodeDone:
	}
	logger.Info().Msg("shutting down")

	collector.Stop()
	node.Shutdown()
	cancel()
	if err := repl.Shutdown(); err != nil {
		logger.Warn().Err(err).Msg("replicator shutdown error")
	}

	if snapStore != nil {
		if err := snapStore.Save(snapshot.SavedState{
			EventLog: node.EventLog().Export(),
			Network:  node.Network().Export(),
			History:  node.HistoryLog().Export(),
		}); err != nil {
			logger.Error().Err(err).Msg("failed to save snapshot")
		}
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// buildNode constructs a fresh ServerNode. A loaded snapshot is not yet
// threaded through here: eventlog/netstate/history.Restore all exist
// (pkg/*/snapshot.go) and round-trip correctly on their own, but
// ServerNode.New always builds its three owned components from scratch
// rather than accepting pre-restored ones, so wiring a loaded SavedState
// into a running node needs a second ServerNode constructor — left as
// followup, not required for a node's first boot against an empty
// snapshot file.
func buildNode(cfg config.Config, saved snapshot.SavedState, hasSaved bool, logger zerolog.Logger) *servernode.ServerNode {
	if hasSaved {
		logger.Warn().Msg("snapshot found but restore-on-boot is not yet wired; starting from empty state")
	}
	return servernode.New(
		servernode.Config{
			ActionCapacity:      cfg.EventLog.PendingCapacity,
			ClientEventCapacity: cfg.EventLog.PendingCapacity,
		},
		cfg.Server.ID,
		cfg.Server.Epoch,
		eventlog.Config{
			PendingCapacity: cfg.EventLog.PendingCapacity,
			JournalCapacity: cfg.EventLog.JournalCapacity,
		},
		metrics.EventLogAdapter{},
		metrics.NetstateAdapter{},
		history.Config{
			Capacity:  cfg.History.Capacity,
			Retention: cfg.History.Retention,
		},
		metrics.HistoryAdapter{},
		logger,
	)
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}

// noopSender is the Sender used until pkg/listener grows a concrete
// Collection implementation; replies are logged instead of delivered to
// a socket.
type noopSender struct{}

func (noopSender) Send(conn ircid.ObjectID, line string) {
	log.WithConnection(conn.String()).Debug().Str("line", line).Msg("reply (no listener wired)")
}

// rehasher implements management.Rehasher by reloading the config file
// and applying anything that can change without a restart (currently
// just the log level; event log/history/gossip tunables are fixed at
// startup to match the server task's bounded-channel sizing).
type rehasher struct {
	configPath string
}

func (r rehasher) Rehash() error {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return err
	}
	log.Init(log.Config{Level: cfg.LogLevel(), JSONOutput: cfg.Log.JSONOutput})
	return nil
}

// notImplementedUpgrader rejects UPGRADE until pkg/listener grows a real
// Collection whose Save()/Resume() can hand bound sockets to a freshly
// exec'd process.
type notImplementedUpgrader struct{}

func (notImplementedUpgrader) UpgradeInPlace() error {
	return fmt.Errorf("upgrade-in-place requires a listener collection implementation, not present in this build")
}
