// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

package client

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/sirosfoundation/go-soapws/pkg/message"
	"github.com/sirosfoundation/go-soapws/pkg/transport"
)

// SendAndReceive runs an exchange against the resolved destination
func SendAndReceive[T any](ctx context.Context, t *Template, populator MessageCallback, extractor Extractor[T]) (T, error) {
	return SendAndReceiveURI(ctx, t, "", populator, extractor)
}

// SendAndReceiveURI runs an exchange against uri. An empty uri is resolved
// from the destination provider, then the default URI.
//
// The populator may be nil to send an empty request. A nil extractor
// discards the response.
func SendAndReceiveURI[T any](ctx context.Context, t *Template, uri string, populator MessageCallback, extractor Extractor[T]) (T, error) {
	var zero T

	uri, err := t.ResolveDestination(ctx, uri)
	if err != nil {
		return zero, err
	}

	conn, err := t.createConnection(ctx, uri)
	if err != nil {
		return zero, err
	}
	defer t.closeConnection(conn)

	mc := NewMessageContext(t.factory.CreateMessage(), t.factory)
	mc.destination = conn.URI()

	return DoSendAndReceive(ctx, t, mc, conn, populator, extractor)
}

// DoSendAndReceive runs an exchange on an open connection. The caller
// owns conn and must close it.
//
// The connection error check runs after Send and before Receive, so a
// connection that reports an error yields a *TransportError even when it
// would return no response. A panic in an interceptor, the connection or the
// extractor is passed to AfterCompletion as an error wrapping ErrPanic and
// then re-raised.
func DoSendAndReceive[T any](ctx context.Context, t *Template, mc *MessageContext, conn transport.Connection, populator MessageCallback, extractor Extractor[T]) (result T, err error) {
	if mc.destination == "" {
		mc.destination = conn.URI()
	}

	if populator != nil {
		if err := populator.DoWithMessage(ctx, mc.Request()); err != nil {
			return result, err
		}
	}

	// k is the index of the last interceptor whose HandleRequest ran
	k := -1
	defer func() {
		r := recover()
		completionErr := err
		if r != nil {
			completionErr = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		for i := k; i >= 0; i-- {
			t.interceptors[i].AfterCompletion(ctx, mc, completionErr)
		}
		if r != nil {
			panic(r)
		}
	}()

	intercepted := false
	for i, in := range t.interceptors {
		k = i
		proceed, herr := in.HandleRequest(ctx, mc)
		if herr != nil {
			return result, herr
		}
		if !proceed {
			intercepted = true
			break
		}
	}

	if intercepted {
		t.logger.Debug("request intercepted", "uri", mc.destination, "interceptor", k)
		if !mc.HasResponse() {
			mc.outcome = OutcomeNoResponse
			return result, nil
		}
		// The interceptor that stopped the request phase sees no response
		if err := t.triggerHandleResponse(ctx, mc, k-1); err != nil {
			return result, err
		}
		return extract(ctx, mc, extractor)
	}

	if err := conn.Send(ctx, mc.Request()); err != nil {
		mc.outcome = OutcomeTransportError
		return result, &TransportError{URI: mc.destination, Message: err.Error(), Err: err}
	}

	if t.hasError(conn) {
		mc.outcome = OutcomeTransportError
		return result, &TransportError{URI: mc.destination, Message: conn.ErrorMessage()}
	}

	response, err := conn.Receive(ctx, t.factory)
	if err != nil {
		mc.outcome = OutcomeTransportError
		return result, &TransportError{URI: mc.destination, Message: err.Error(), Err: err}
	}

	if response == nil {
		mc.outcome = OutcomeNoResponse
		return result, t.triggerHandleResponse(ctx, mc, k)
	}
	mc.SetResponse(response)

	if t.hasFault(conn, response) {
		return result, t.handleFault(ctx, mc, k)
	}

	if err := t.triggerHandleResponse(ctx, mc, k); err != nil {
		return result, err
	}
	return extract(ctx, mc, extractor)
}

func extract[T any](ctx context.Context, mc *MessageContext, extractor Extractor[T]) (T, error) {
	var zero T
	if extractor == nil {
		mc.outcome = OutcomeExtracted
		return zero, nil
	}

	v, err := extractor.ExtractData(ctx, mc.Response())
	if err != nil {
		return zero, err
	}
	mc.outcome = OutcomeExtracted
	return v, nil
}

func (t *Template) hasError(conn transport.Connection) bool {
	return t.checkError && conn.HasError()
}

func (t *Template) hasFault(conn transport.Connection, response message.Message) bool {
	if !t.checkFault {
		return false
	}
	if fc, ok := conn.(transport.FaultAwareConnection); ok {
		return fc.HasFault()
	}
	if fm, ok := response.(message.FaultAwareMessage); ok {
		return fm.HasFault()
	}
	return false
}

// handleFault resolves the fault, then runs HandleFault from index from
// down to 0
func (t *Template) handleFault(ctx context.Context, mc *MessageContext, from int) error {
	faultErr := t.faultResolver.ResolveFault(ctx, mc.Response())
	if faultErr != nil {
		mc.outcome = OutcomeFaultRaised
	} else {
		mc.outcome = OutcomeFaultResolved
	}

	for i := from; i >= 0; i-- {
		proceed, err := t.interceptors[i].HandleFault(ctx, mc)
		if err != nil {
			return multierr.Append(faultErr, err)
		}
		if !proceed {
			break
		}
	}
	return faultErr
}

// triggerHandleResponse runs HandleResponse from index from down to 0
func (t *Template) triggerHandleResponse(ctx context.Context, mc *MessageContext, from int) error {
	for i := from; i >= 0; i-- {
		proceed, err := t.interceptors[i].HandleResponse(ctx, mc)
		if err != nil {
			return err
		}
		if !proceed {
			break
		}
	}
	return nil
}
