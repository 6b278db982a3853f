package core

import "errors"

// Inbound validation errors. They are logged by the transport and never sent
// to clients; the offending event is dropped.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnknownEvent = errors.New("unknown event type")
)
