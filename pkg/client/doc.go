// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package client implements the client side of a SOAP message exchange.
//
// A [Template] drives one synchronous exchange per call:
//
//  1. resolve the destination URI (explicit argument, then the configured
//     [destination.Provider], then the default URI)
//  2. open a connection with the first sender that supports the URI
//  3. create the request and let the [MessageCallback] populate it
//  4. run HandleRequest on each [Interceptor] in order
//  5. send, check the connection for errors, receive
//  6. classify the response as normal, fault or absent
//  7. run HandleResponse or HandleFault in reverse order
//  8. extract the result with the caller's [Extractor]
//  9. run AfterCompletion in reverse order on every interceptor that saw the request
//  10. close the connection
//
// An interceptor that returns false from HandleRequest stops the request
// phase. The message is then not sent. If the interceptor placed a response
// on the [MessageContext], that response is handed to the extractor.
//
// # Usage
//
//	tmpl, err := client.NewTemplate(client.Config{
//	    DefaultURI:   "https://ws.example.com/orders",
//	    Interceptors: []client.Interceptor{interceptor.NewLogging(nil)},
//	})
//	if err != nil {
//	    return err
//	}
//
//	resp, err := tmpl.SendPayloadAndReceive(ctx, "", payload)
//	var fault *client.FaultError
//	if errors.As(err, &fault) {
//	    log.Printf("service fault %s: %s", fault.Code, fault.Reason)
//	}
//
// Typed results go through the generic entry points:
//
//	order, err := client.SendAndReceive(ctx, tmpl,
//	    client.PayloadCallback(req),
//	    client.ExtractorFunc[*Order](decodeOrder))
//
// # Errors
//
// Missing collaborators are reported as [ErrPrecondition] before any
// connection is opened. Connection level failures surface as
// [*TransportError] and application faults as [*FaultError], unless a
// [FaultResolver] suppresses them. A missing response is not an error.
package client
