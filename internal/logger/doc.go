// Package logger wraps zap for the commute-alarm binaries.
//
// It keeps one global sugared logger with a console encoder and lets every
// service carry a named, field-enriched child logger inside its context
// (ToContext, FromContext, WithName, WithKV). The helpers InfoKV, WarnKV,
// ErrorKV and friends always log through the logger found in the context.
package logger
