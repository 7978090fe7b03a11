// Package line holds the line status domain model and the Result tagged
// union emitted by the offline-first line status repository.
package line
