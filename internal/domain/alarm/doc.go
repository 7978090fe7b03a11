// Package alarm contains the alarm configuration domain type.
//
// An Alarm is a wall-clock time of day, an optional weekday pattern (empty
// means a one-time alarm) and the set of line ids it watches. Validation and
// the display helpers used by notifications and the CLI live here too.
package alarm
