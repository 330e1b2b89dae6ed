package service

import "errors"

var (
	// ErrUpstreamSetup means the completion call could not be initiated and
	// nothing has been written to the client.
	ErrUpstreamSetup = errors.New("upstream setup failed")
	// ErrUpstreamStream means the upstream sequence failed after the response
	// was committed.
	ErrUpstreamStream = errors.New("upstream stream failed")
	// ErrTransportWrite means writing to the client failed.
	ErrTransportWrite = errors.New("transport write failed")
)
