// Package metrics registers the Prometheus collectors of the alarm daemon and
// exposes nil-safe helpers so packages can record observations before Init.
package metrics
