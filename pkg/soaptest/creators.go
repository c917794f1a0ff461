package soaptest

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-soapws/pkg/message"
)

// Response describes how a mock connection answers one request
type Response struct {
	// ErrorMessage makes the connection report an error
	ErrorMessage string
	// Fault makes the connection report a fault
	Fault bool
	// SendErr is returned from Send
	SendErr error
	// ReceiveErr is returned from Receive
	ReceiveErr error

	// build creates the response message; nil means no response
	build func(factory message.Factory) (message.Message, error)
}

// ResponseCreator builds the answer to a request
type ResponseCreator func(request message.Message) (*Response, error)

// WithPayload answers with a copy of payload as the response body
func WithPayload(payload *etree.Element) ResponseCreator {
	return func(request message.Message) (*Response, error) {
		return &Response{
			build: func(factory message.Factory) (message.Message, error) {
				msg := factory.CreateMessage()
				if payload != nil {
					msg.SetPayload(payload.Copy())
				}
				return msg, nil
			},
		}, nil
	}
}

// WithPayloadString answers with the parsed XML as the response body
func WithPayloadString(xml string) ResponseCreator {
	return func(request message.Message) (*Response, error) {
		payload, err := message.ParseElement([]byte(xml))
		if err != nil {
			return nil, err
		}
		return WithPayload(payload)(request)
	}
}

// WithEcho answers with a copy of the request payload
func WithEcho() ResponseCreator {
	return func(request message.Message) (*Response, error) {
		payload := request.Payload()
		return &Response{
			build: func(factory message.Factory) (message.Message, error) {
				msg := factory.CreateMessage()
				if payload != nil {
					msg.SetPayload(payload.Copy())
				}
				return msg, nil
			},
		}, nil
	}
}

// WithFault answers with a SOAP fault and flags the connection as faulted.
// An unqualified code such as "Server" or "Receiver" is qualified with the
// envelope prefix.
func WithFault(code, reason string) ResponseCreator {
	return func(request message.Message) (*Response, error) {
		return &Response{
			Fault: true,
			build: func(factory message.Factory) (message.Message, error) {
				msg, ok := factory.CreateMessage().(*message.SOAPMessage)
				if !ok {
					return nil, fmt.Errorf("factory does not create SOAP messages")
				}
				msg.AddFault(code, reason)
				return msg, nil
			},
		}, nil
	}
}

// WithClientFault answers with a fault using the version's client code
func WithClientFault(reason string) ResponseCreator {
	return withVersionFault(reason, message.Version.ClientFaultCode)
}

// WithServerFault answers with a fault using the version's server code
func WithServerFault(reason string) ResponseCreator {
	return withVersionFault(reason, message.Version.ServerFaultCode)
}

func withVersionFault(reason string, code func(message.Version) string) ResponseCreator {
	return func(request message.Message) (*Response, error) {
		soap, ok := request.(*message.SOAPMessage)
		if !ok {
			return nil, fmt.Errorf("request is not a SOAP message")
		}
		return WithFault(code(soap.Version()), reason)(request)
	}
}

// WithError makes the connection report an error with the given message
func WithError(errorMessage string) ResponseCreator {
	return func(request message.Message) (*Response, error) {
		if strings.TrimSpace(errorMessage) == "" {
			return nil, fmt.Errorf("error message must not be empty")
		}
		return &Response{ErrorMessage: errorMessage}, nil
	}
}

// WithNoResponse answers without a response message
func WithNoResponse() ResponseCreator {
	return func(request message.Message) (*Response, error) {
		return &Response{}, nil
	}
}

// WithSendError fails the send with err
func WithSendError(err error) ResponseCreator {
	return func(request message.Message) (*Response, error) {
		return &Response{SendErr: err}, nil
	}
}

// WithReceiveError fails the receive with err
func WithReceiveError(err error) ResponseCreator {
	return func(request message.Message) (*Response, error) {
		return &Response{ReceiveErr: err}, nil
	}
}

// WithResponse answers with the message built by build, which sees the
// request and the client's factory
func WithResponse(build func(request message.Message, factory message.Factory) (message.Message, error)) ResponseCreator {
	return func(request message.Message) (*Response, error) {
		return &Response{
			build: func(factory message.Factory) (message.Message, error) {
				return build(request, factory)
			},
		}, nil
	}
}
