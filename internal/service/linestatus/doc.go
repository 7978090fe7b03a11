// Package linestatus implements the offline-first line status repository.
//
// Statuses emits Loading, then the cached snapshot when one exists, then the
// fresh snapshot. Fetch failures surface as an Error result only when nothing
// usable was emitted before.
package linestatus
