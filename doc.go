// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package gosoapws implements a client-side SOAP message exchange engine.

# Overview

go-soapws sends SOAP 1.1 and SOAP 1.2 requests and processes their
responses through a fixed, contract-first sequence. Callers supply a
callback that fills in the request and an extractor that turns the response
into a result. Everything in between, including destination resolution,
interceptors, error and fault detection and connection cleanup, is handled
by the engine.

# Specifications Implemented

  - SOAP 1.1: https://www.w3.org/TR/2000/NOTE-SOAP-20000508/
  - SOAP 1.2 Part 1: https://www.w3.org/TR/soap12-part1/
  - WS-Addressing 1.0 SOAP Binding: https://www.w3.org/TR/ws-addr-soap/
  - U-NAPTR (RFC 4848): https://www.rfc-editor.org/rfc/rfc4848

# Package Structure

	github.com/sirosfoundation/go-soapws/pkg/client      - Exchange engine (Template), interceptors, faults
	github.com/sirosfoundation/go-soapws/pkg/message     - SOAP message model and factory
	github.com/sirosfoundation/go-soapws/pkg/transport   - Connections and the HTTP(S) sender
	github.com/sirosfoundation/go-soapws/pkg/destination - Destination providers (static, U-NAPTR, caching)
	github.com/sirosfoundation/go-soapws/pkg/interceptor - Logging, WS-Addressing and journal interceptors
	github.com/sirosfoundation/go-soapws/pkg/journal     - Exchange journal (memory and MongoDB stores)
	github.com/sirosfoundation/go-soapws/pkg/soaptest    - Mock sender for client tests

# Exchange Sequence

For every exchange the engine:

 1. Resolves the destination (explicit URI, destination provider, default URI)
 2. Opens a connection with the first sender that supports the URI
 3. Creates the request and runs the request callback
 4. Runs HandleRequest on each interceptor; any interceptor may stop the exchange
 5. Sends the request and checks the connection for an error
 6. Receives the response and checks it for a fault
 7. Runs HandleFault or HandleResponse on the interceptors in reverse order
 8. Extracts the result
 9. Runs AfterCompletion on every interceptor that handled the request, in reverse order
 10. Closes the connection

# Quick Start

	import (
	    "github.com/sirosfoundation/go-soapws/pkg/client"
	    "github.com/sirosfoundation/go-soapws/pkg/interceptor"
	)

	tmpl, err := client.NewTemplate(client.Config{
	    DefaultURI:   "https://ws.example.com/orders",
	    Interceptors: []client.Interceptor{interceptor.NewLogging(interceptor.LoggingConfig{})},
	})
	if err != nil {
	    return err
	}

	resp, err := tmpl.SendPayloadAndReceive(ctx, "", request)
	var fault *client.FaultError
	if errors.As(err, &fault) {
	    log.Printf("service returned fault %s: %s", fault.Code, fault.Reason)
	}

# Testing

The soaptest package replaces the HTTP sender in tests:

	sender := soaptest.NewMockSender()
	sender.Expect(soaptest.PayloadRoot("getOrder")).
	    AndRespond(soaptest.WithPayloadString(`<order><id>17</id></order>`))

	tmpl, _ := client.NewTemplate(client.Config{
	    Senders:    []transport.Sender{sender},
	    DefaultURI: "http://orders.test/ws",
	})

# License

BSD-2-Clause License
*/
package gosoapws
