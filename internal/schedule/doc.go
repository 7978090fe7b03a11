// Package schedule computes when an alarm fires next.
//
// NextTrigger is pure: the only notion of "now" is the instant passed in, and
// the result is expressed in now's location.
package schedule
