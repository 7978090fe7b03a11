// Package dispatcher handles fired alarm triggers.
//
// OnTrigger validates the trigger, waits for the first terminal line status
// result, presents a notification and then re-registers recurring alarms or
// disables one-time alarms.
package dispatcher
