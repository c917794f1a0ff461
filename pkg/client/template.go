// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-soapws/pkg/destination"
	"github.com/sirosfoundation/go-soapws/pkg/message"
	"github.com/sirosfoundation/go-soapws/pkg/transport"
)

// Config holds Template configuration
type Config struct {
	// MessageFactory creates requests and parses responses (default SOAP 1.1)
	MessageFactory message.Factory
	// Senders are tried in order; the first supporting the URI wins
	// (default: one HTTP sender)
	Senders []transport.Sender
	// Interceptors run around every exchange, in order
	Interceptors []Interceptor
	// FaultResolver handles fault responses (default: DefaultFaultResolver)
	FaultResolver FaultResolver
	// DestinationProvider supplies the URI when none is passed explicitly
	DestinationProvider destination.Provider
	// DefaultURI is used when neither an explicit URI nor a provider yields one
	DefaultURI string
	// Marshaller and Unmarshaller back MarshalSendAndReceive
	Marshaller   Marshaller
	Unmarshaller Unmarshaller
	// SkipErrorCheck disables the connection error check
	SkipErrorCheck bool
	// SkipFaultCheck disables fault detection; faults are treated as responses
	SkipFaultCheck bool
	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// Template sends requests and processes responses. Its configuration is
// fixed at construction, so a Template is safe for concurrent use.
type Template struct {
	factory       message.Factory
	senders       []transport.Sender
	interceptors  []Interceptor
	faultResolver FaultResolver
	provider      destination.Provider
	defaultURI    string
	marshaller    Marshaller
	unmarshaller  Unmarshaller
	checkError    bool
	checkFault    bool
	logger        *slog.Logger
}

// NewTemplate creates a Template
func NewTemplate(config Config) (*Template, error) {
	t := &Template{
		factory:       config.MessageFactory,
		senders:       append([]transport.Sender(nil), config.Senders...),
		interceptors:  append([]Interceptor(nil), config.Interceptors...),
		faultResolver: config.FaultResolver,
		provider:      config.DestinationProvider,
		defaultURI:    config.DefaultURI,
		marshaller:    config.Marshaller,
		unmarshaller:  config.Unmarshaller,
		checkError:    !config.SkipErrorCheck,
		checkFault:    !config.SkipFaultCheck,
		logger:        config.Logger,
	}

	if t.factory == nil {
		t.factory = message.NewFactory(message.SOAP11)
	}
	if len(t.senders) == 0 {
		t.senders = []transport.Sender{transport.NewHTTPSender(nil)}
	}
	if t.faultResolver == nil {
		t.faultResolver = DefaultFaultResolver{}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}

	for i, s := range t.senders {
		if s == nil {
			return nil, fmt.Errorf("sender %d is nil", i)
		}
	}
	for i, in := range t.interceptors {
		if in == nil {
			return nil, fmt.Errorf("interceptor %d is nil", i)
		}
	}

	return t, nil
}

// MessageFactory returns the factory used for requests and responses
func (t *Template) MessageFactory() message.Factory {
	return t.factory
}

// Interceptors returns a copy of the interceptor list
func (t *Template) Interceptors() []Interceptor {
	return append([]Interceptor(nil), t.interceptors...)
}

// DefaultURI returns the configured default destination
func (t *Template) DefaultURI() string {
	return t.defaultURI
}

// ResolveDestination returns uri when set, otherwise the destination
// provider's answer, otherwise the default URI
func (t *Template) ResolveDestination(ctx context.Context, uri string) (string, error) {
	if uri != "" {
		return uri, nil
	}

	if t.provider != nil {
		resolved, err := t.provider.Destination(ctx)
		switch {
		case err == nil && resolved != "":
			return resolved, nil
		case err != nil && !errors.Is(err, destination.ErrNoDestination):
			return "", fmt.Errorf("failed to resolve destination: %w", err)
		}
	}

	if t.defaultURI == "" {
		return "", ErrNoDestination
	}
	return t.defaultURI, nil
}

// createConnection opens a connection with the first sender supporting uri
func (t *Template) createConnection(ctx context.Context, uri string) (transport.Connection, error) {
	for _, s := range t.senders {
		if s.Supports(uri) {
			return s.CreateConnection(ctx, uri)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoSender, uri)
}

func (t *Template) closeConnection(conn transport.Connection) {
	if err := conn.Close(); err != nil {
		t.logger.Warn("failed to close connection", "uri", conn.URI(), "error", err)
	}
}

// Send sends a request and discards any response. An empty uri is
// resolved from the provider or default.
func (t *Template) Send(ctx context.Context, uri string, populator MessageCallback) error {
	_, err := SendAndReceiveURI[struct{}](ctx, t, uri, populator, nil)
	return err
}

// SendPayloadAndReceive sends payload as the request body and returns a
// copy of the response payload. The result is nil when there is no
// response or the response body is empty.
func (t *Template) SendPayloadAndReceive(ctx context.Context, uri string, payload *etree.Element) (*etree.Element, error) {
	return SendAndReceiveURI(ctx, t, uri, PayloadCallback(payload), PayloadExtractor())
}

// SendPayloadToWriter sends payload and writes the response payload to w.
// It reports whether a response was received.
func (t *Template) SendPayloadToWriter(ctx context.Context, uri string, payload *etree.Element, w io.Writer) (bool, error) {
	return SendAndReceiveURI(ctx, t, uri, PayloadCallback(payload),
		ExtractorFunc[bool](func(ctx context.Context, msg message.Message) (bool, error) {
			if p := msg.Payload(); p != nil && w != nil {
				doc := etree.NewDocument()
				doc.SetRoot(p.Copy())
				if _, err := doc.WriteTo(w); err != nil {
					return false, fmt.Errorf("failed to write response payload: %w", err)
				}
			}
			return true, nil
		}))
}

// MarshalSendAndReceive marshals request into the body, sends it, and
// unmarshals the response payload into response. It reports whether a
// response was received; response is left untouched when the body is
// empty. A nil response discards the reply.
func (t *Template) MarshalSendAndReceive(ctx context.Context, uri string, request, response any) (bool, error) {
	if t.marshaller == nil {
		return false, ErrNoMarshaller
	}
	if response != nil && t.unmarshaller == nil {
		return false, ErrNoUnmarshaller
	}

	populator := MessageCallbackFunc(func(ctx context.Context, msg message.Message) error {
		if request == nil {
			return nil
		}
		payload, err := t.marshaller.Marshal(request)
		if err != nil {
			return err
		}
		msg.SetPayload(payload)
		return nil
	})

	extractor := ExtractorFunc[bool](func(ctx context.Context, msg message.Message) (bool, error) {
		if response == nil {
			return true, nil
		}
		if p := msg.Payload(); p != nil {
			if err := t.unmarshaller.Unmarshal(p, response); err != nil {
				return false, err
			}
		}
		return true, nil
	})

	return SendAndReceiveURI(ctx, t, uri, populator, extractor)
}
