// Package poller keeps the line status cache warm between alarms.
package poller
