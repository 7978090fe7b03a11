// Package alarm implements the gRPC transport for the alarm service.
//
// Messages are protobuf well-known types: structured payloads travel as
// google.protobuf.Struct documents whose JSON shape is given by the wire
// types of this package. The server adapts them to the alarm management,
// dispatch and line status services.
package alarm
