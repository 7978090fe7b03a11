// Package alarms persists alarm configurations.
//
// Repository is implemented by FileRepository (a JSON document on disk) and by
// the PostgreSQL store in the postgres package. Every implementation enforces
// the alarm limit atomically with the insert.
package alarms
