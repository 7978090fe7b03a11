// Package version exposes build metadata of commute-alarmd and commute-alarmctl.
//
// Version, Commit and BuildTime are injected with -ldflags -X at build time.
package version
