// Package client implements the commute-alarmctl operations.
//
// Every operation dials the daemon, performs one or two calls and prints the
// result as a table or, on request, as JSON.
package client
