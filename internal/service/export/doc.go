// Package export renders alarms as an iCalendar document so they can be
// reviewed in any calendar application.
package export
