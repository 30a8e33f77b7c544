package gateway

import "time"

// ResultKind is the closed set of gateway outcomes. The fiscal state machine
// branches on this, never on raw response strings.
type ResultKind int

const (
	ResultAccepted ResultKind = iota
	ResultRefused
	ResultTransportError
)

// Result is the strict wrapper around the emitter bridge's loosely-typed
// JSON reply.
type Result struct {
	Kind         ResultKind
	Protocol     string
	AccessKey    string
	AuthorizedAt time.Time
	ReasonCode   string
	ReasonText   string
	Err          error // set only for ResultTransportError
}

// Accepted builds an authorization result
func Accepted(protocol, accessKey string, authorizedAt time.Time) Result {
	return Result{Kind: ResultAccepted, Protocol: protocol, AccessKey: accessKey, AuthorizedAt: authorizedAt}
}

// Refused builds a rejection result carrying the authority's verbatim reason
func Refused(code, text string) Result {
	return Result{Kind: ResultRefused, ReasonCode: code, ReasonText: text}
}

// TransportError builds a transient-failure result
func TransportError(err error) Result {
	return Result{Kind: ResultTransportError, Err: err}
}
