// Package notify builds notification requests for fired alarms and hands them
// to presenters. A Request is the only contract between the alarm engine and
// whatever shows the notification.
package notify
