// Package server runs the commute alarm daemon: it loads settings, opens the
// stores, re-arms enabled alarms and serves the gRPC control API.
package server
