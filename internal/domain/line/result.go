package line

import "fmt"

// Kind tags the variant held by a Result.
type Kind int

// Result variants.
const (
	KindLoading Kind = iota
	KindSuccess
	KindError
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is one state emitted by the line status repository.
// Only the fields of the tagged variant are meaningful.
type Result struct {
	// Kind is the variant tag.
	Kind Kind
	// Lines is the payload of a Success.
	Lines []Status
	// Message is the human message of an Error.
	Message string
	// StatusCode is the HTTP status of an Error, zero when not applicable.
	StatusCode int
}

// Loading returns the Loading variant.
func Loading() Result {
	return Result{Kind: KindLoading}
}

// Success returns the Success variant carrying lines.
func Success(lines []Status) Result {
	return Result{Kind: KindSuccess, Lines: lines}
}

// Failure returns the Error variant. A zero code means no HTTP status.
func Failure(message string, code int) Result {
	return Result{Kind: KindError, Message: message, StatusCode: code}
}

// Terminal reports whether the result is anything but Loading.
func (r Result) Terminal() bool {
	return r.Kind != KindLoading
}
