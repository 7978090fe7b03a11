// Package alarms manages alarm configurations and keeps their platform
// registrations in step with what is stored.
//
// Writes to the same alarm id are serialized; different ids never wait on
// each other.
package alarms
