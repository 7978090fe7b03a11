// Package autostart registers the daemon to start at login, so alarms are
// reconciled after every reboot.
package autostart
