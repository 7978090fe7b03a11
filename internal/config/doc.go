// Package config defines connection settings used by binaries and provides
// helpers to load, validate and save them in YAML format.
//
// The Settings type holds the server gRPC address and the update folder URL.
package config
