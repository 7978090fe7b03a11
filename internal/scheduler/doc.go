// Package scheduler registers alarm wake-ups with a timer platform.
//
// Scheduler computes the next trigger instant of an alarm and asks the
// Platform for a precise wake-up, falling back to a best-effort one when
// precise timing is denied. Registrations are keyed by alarm id, so
// scheduling an id again replaces its previous registration.
package scheduler
