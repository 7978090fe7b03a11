// Package linecache stores the last known status of every line.
package linecache
