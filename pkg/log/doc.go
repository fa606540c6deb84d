/*
Package log provides structured logging for ircfed using zerolog.

It wraps zerolog with a global logger, component-specific child loggers,
and helper functions for the common logging patterns used across the
event log, network state reducer, replicator, and listener packages.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	log.Info("server starting")

	replLog := log.WithComponent("replicator")
	replLog.Warn().Str("peer", peerName).Msg("sync timed out")

	connLog := log.WithConnection(connID.String())
	connLog.Error().Err(err).Msg("malformed line from client")

# Context loggers

  - WithComponent: tag logs with the owning package (eventlog, netstate,
    replicator, servernode, dispatch, listener)
  - WithServer: tag logs with the originating cluster server id
  - WithConnection: tag logs with a client connection id
  - WithChannel: tag logs with a channel name

Do not log secrets: TLS private keys, SASL credentials, and management
socket tokens must never reach a log line.
*/
package log
