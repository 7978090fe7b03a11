// Package jsonfile reads and atomically replaces JSON documents on disk.
package jsonfile
