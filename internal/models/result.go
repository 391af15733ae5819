package models

// FailureKind classifies why a user-initiated mutation did not succeed.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureApplication FailureKind = "application" // service answered success=false
	FailureTransport   FailureKind = "transport"   // no usable response
	FailureValidation  FailureKind = "validation"  // rejected before any network call
	FailureDeclined    FailureKind = "declined"    // confirmation refused
)

// Result is the outcome of a mutation as seen by the presentation layer.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Failure FailureKind `json:"failure,omitempty"`
}

func Succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

func Failed(kind FailureKind, message string) Result {
	return Result{Success: false, Message: message, Failure: kind}
}

// Display renders the message with the ok or warning marker.
func (r Result) Display() string {
	if r.Message == "" {
		return ""
	}
	if r.Success {
		return OKMarker + r.Message
	}
	return WarningMarker + r.Message
}
