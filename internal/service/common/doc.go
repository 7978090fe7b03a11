// Package common holds helpers shared by the daemon and the control client.
//
// It provides the typed gRPC client of the alarm service with per-call
// timeouts, and detection of the calling actor (hostname/username) which the
// daemon records in its audit log.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
