package models

import "strconv"

// TransportErrorKey is the histogram bucket shared by all fetch failures
// that never produced an HTTP status (DNS, connect, timeout, body read)
const TransportErrorKey = "error"

// transportErrorField is the Error column value for transport failures in
// CSV exports and the console summary
const transportErrorField = "ERROR"

// OutcomeKind discriminates the result of fetching one URL
type OutcomeKind string

const (
	OutcomeUnset          OutcomeKind = ""                // Zero value = no fetch performed
	OutcomeSuccess        OutcomeKind = "success"         // Status < 400
	OutcomeHTTPError      OutcomeKind = "http_error"      // Status >= 400
	OutcomeTransportError OutcomeKind = "transport_error" // Request never yielded a status
)

// Outcome is the tagged result of one fetch: a success status, an HTTP
// error status, or a transport-error description. Exactly one shape is
// populated depending on Kind
type Outcome struct {
	Kind        OutcomeKind
	Status      int    // Set for OutcomeSuccess and OutcomeHTTPError
	Description string // Set for OutcomeTransportError
}

// Success classifies a response with status < 400
func Success(status int) Outcome {
	return Outcome{Kind: OutcomeSuccess, Status: status}
}

// HTTPError classifies a response with status >= 400
func HTTPError(status int) Outcome {
	return Outcome{Kind: OutcomeHTTPError, Status: status}
}

// TransportError classifies a request that failed before producing a status
func TransportError(description string) Outcome {
	return Outcome{Kind: OutcomeTransportError, Description: description}
}

// Broken reports whether this outcome makes the target a broken link
func (o Outcome) Broken() bool {
	return o.Kind == OutcomeHTTPError || o.Kind == OutcomeTransportError
}

// HistogramKey returns the status-histogram bucket for this outcome: the
// decimal status code, or TransportErrorKey for transport failures
func (o Outcome) HistogramKey() string {
	if o.Kind == OutcomeTransportError {
		return TransportErrorKey
	}
	return strconv.Itoa(o.Status)
}

// ErrorField returns the Error column value for exports and the summary
// table: the decimal status code, or the literal ERROR token for transport
// failures
func (o Outcome) ErrorField() string {
	if o.Kind == OutcomeTransportError {
		return transportErrorField
	}
	return strconv.Itoa(o.Status)
}

// String implements fmt.Stringer for logging
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess, OutcomeHTTPError:
		return strconv.Itoa(o.Status)
	case OutcomeTransportError:
		return transportErrorField + ": " + o.Description
	}
	return "unset"
}
