// Package message provides the SOAP message model and factories.
package message

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Namespace constants
const (
	NsSOAP11Env = "http://schemas.xmlsoap.org/soap/envelope/"
	NsSOAP12Env = "http://www.w3.org/2003/05/soap-envelope"
	NsWSA       = "http://www.w3.org/2005/08/addressing"
)

// Content types used on the wire for each SOAP version
const (
	ContentTypeSOAP11 = "text/xml"
	ContentTypeSOAP12 = "application/soap+xml"
)

var (
	// ErrInvalidEnvelope is returned when a document is not a SOAP envelope
	ErrInvalidEnvelope = errors.New("invalid SOAP envelope")
	// ErrVersionMismatch is returned when an envelope does not match the factory version
	ErrVersionMismatch = errors.New("SOAP version mismatch")
	// ErrUnknownVersion is returned for unsupported version strings
	ErrUnknownVersion = errors.New("unknown SOAP version")
)

// Version identifies a SOAP protocol version
type Version int

const (
	// SOAP11 is SOAP 1.1
	SOAP11 Version = iota + 1
	// SOAP12 is SOAP 1.2
	SOAP12
)

// ParseVersion parses "1.1" or "1.2" (an optional "soap" prefix is accepted)
func ParseVersion(s string) (Version, error) {
	v := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "soap")
	switch strings.TrimSpace(v) {
	case "1.1", "11", "":
		return SOAP11, nil
	case "1.2", "12":
		return SOAP12, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, s)
	}
}

// Namespace returns the envelope namespace URI
func (v Version) Namespace() string {
	if v == SOAP12 {
		return NsSOAP12Env
	}
	return NsSOAP11Env
}

// ContentType returns the HTTP content type without parameters
func (v Version) ContentType() string {
	if v == SOAP12 {
		return ContentTypeSOAP12
	}
	return ContentTypeSOAP11
}

// ClientFaultCode returns the fault code for errors caused by the sender
func (v Version) ClientFaultCode() string {
	if v == SOAP12 {
		return "Sender"
	}
	return "Client"
}

// ServerFaultCode returns the fault code for errors caused by the receiver
func (v Version) ServerFaultCode() string {
	if v == SOAP12 {
		return "Receiver"
	}
	return "Server"
}

func (v Version) String() string {
	if v == SOAP12 {
		return "SOAP 1.2"
	}
	return "SOAP 1.1"
}

func (v Version) prefix() string {
	if v == SOAP12 {
		return "env"
	}
	return "soapenv"
}

func versionForNamespace(ns string) (Version, bool) {
	switch ns {
	case NsSOAP11Env:
		return SOAP11, true
	case NsSOAP12Env:
		return SOAP12, true
	}
	return 0, false
}

// Message is a message exchanged with a web service
type Message interface {
	// Payload returns the body content, or nil when the body is empty
	Payload() *etree.Element
	// SetPayload replaces the body content. A nil element empties the body.
	SetPayload(payload *etree.Element)
	// WriteTo serializes the whole message
	WriteTo(w io.Writer) (int64, error)
}

// FaultAwareMessage is a Message that can carry an application fault
type FaultAwareMessage interface {
	Message
	HasFault() bool
	FaultReason() string
}

// Factory creates messages bound to a protocol version
type Factory interface {
	// CreateMessage creates an empty message
	CreateMessage() Message
	// ReadMessage parses a message from r
	ReadMessage(r io.Reader) (Message, error)
}
