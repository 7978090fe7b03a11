// Package feed fetches line statuses from the remote status feed.
//
// Client performs one logical fetch per call; RetryTransport wraps the HTTP
// transport and replays requests that failed with a transient status code.
package feed
