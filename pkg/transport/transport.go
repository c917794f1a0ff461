package transport

import (
	"context"
	"errors"

	"github.com/sirosfoundation/go-soapws/pkg/message"
)

var (
	// ErrUnsupportedURI is returned when a sender cannot handle a URI
	ErrUnsupportedURI = errors.New("unsupported URI")
	// ErrNotSent is returned when a response is requested before a request was sent
	ErrNotSent = errors.New("no request sent on connection")
	// ErrResponseTooLarge is returned when a response body exceeds the configured limit
	ErrResponseTooLarge = errors.New("response body too large")
)

// Connection is a single-use exchange channel to one destination.
// Connections are not safe for concurrent use.
type Connection interface {
	// URI returns the destination of the connection
	URI() string
	// Send writes the request message
	Send(ctx context.Context, msg message.Message) error
	// Receive reads the response message. A nil message with a nil error
	// means the destination sent no response.
	Receive(ctx context.Context, factory message.Factory) (message.Message, error)
	// HasError reports a transport-level failure
	HasError() bool
	// ErrorMessage describes the failure reported by HasError
	ErrorMessage() string
	// Close releases the connection
	Close() error
}

// FaultAwareConnection is a Connection that can tell a fault response
// apart from a transport error
type FaultAwareConnection interface {
	Connection
	HasFault() bool
}

// Sender creates connections for the URIs it supports
type Sender interface {
	Supports(uri string) bool
	CreateConnection(ctx context.Context, uri string) (Connection, error)
}
