// Package reconciler re-registers enabled alarms when the daemon starts.
package reconciler
