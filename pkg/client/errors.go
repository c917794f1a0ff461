package client

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-soapws/pkg/message"
)

var (
	// ErrPrecondition is the root of errors raised before a connection is opened
	ErrPrecondition = errors.New("precondition failed")
	// ErrNoMarshaller is returned when a marshalling call has no marshaller
	ErrNoMarshaller = fmt.Errorf("%w: no marshaller registered", ErrPrecondition)
	// ErrNoUnmarshaller is returned when a response must be unmarshalled without an unmarshaller
	ErrNoUnmarshaller = fmt.Errorf("%w: no unmarshaller registered", ErrPrecondition)
	// ErrNoDestination is returned when no destination URI can be resolved
	ErrNoDestination = fmt.Errorf("%w: no destination URI", ErrPrecondition)
	// ErrNoSender is returned when no sender supports the destination URI
	ErrNoSender = fmt.Errorf("%w: no sender supports URI", ErrPrecondition)
	// ErrPanic is passed to AfterCompletion when an exchange panics
	ErrPanic = errors.New("exchange panicked")
)

// TransportError reports a connection level failure. Its message is the
// connection's error message, or the I/O error when there is none.
type TransportError struct {
	// URI is the destination of the exchange
	URI string
	// Message is the connection's error message
	Message string
	// Err is the underlying I/O error, if any
	Err error
}

func (e *TransportError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FaultError is an application fault returned by the service
type FaultError struct {
	Code   string
	Reason string
	Actor  string
	Detail *etree.Element
	// Response is the fault message
	Response message.Message
}

func (e *FaultError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("SOAP fault: %s", e.Reason)
	}
	return fmt.Sprintf("SOAP fault %s: %s", e.Code, e.Reason)
}

// faultParser is implemented by messages that expose structured fault content
type faultParser interface {
	Fault() *message.Fault
}

// NewFaultError builds a FaultError from a fault response
func NewFaultError(response message.Message) *FaultError {
	fe := &FaultError{Response: response}

	switch msg := response.(type) {
	case faultParser:
		if f := msg.Fault(); f != nil {
			fe.Code = f.Code
			fe.Reason = f.Reason
			fe.Actor = f.Actor
			fe.Detail = f.Detail
		}
	case message.FaultAwareMessage:
		fe.Reason = msg.FaultReason()
	}

	return fe
}
