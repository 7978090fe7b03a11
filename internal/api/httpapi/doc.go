// Package httpapi serves the optional HTTP endpoints of the daemon:
// Prometheus metrics, the cached line snapshot as JSON and a websocket that
// streams the results of one line status fetch.
package httpapi
