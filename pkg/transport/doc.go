// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package transport defines the connection contracts used by the client and
an HTTP(S) implementation.

A [Sender] creates one [Connection] per exchange. The client sends the
request on it, checks it for transport errors and faults, receives the
response and always closes it.

# HTTP Sender

	sender := transport.NewHTTPSender(&transport.HTTPConfig{
	    MinTLSVersion:      transport.TLS12,
	    RootCAs:            certPool,
	    ConnectionTimeout:  10 * time.Second,
	    ReadTimeout:        60 * time.Second,
	    AcceptGzipEncoding: true,
	})

The HTTP connection classifies responses as follows:

  - 202 Accepted, 204 No Content or an empty body: no response
  - 500 with an XML content type: a SOAP fault ([FaultAwareConnection.HasFault])
  - any other non-2xx status: a transport error, ErrorMessage is the reason phrase

# Content Types

	SOAP 1.1: text/xml; charset=utf-8 with a SOAPAction header
	SOAP 1.2: application/soap+xml; charset=utf-8; action="..."

# TLS

TLS 1.2 is the minimum by default, with the ECDHE AEAD cipher suites in
[RecommendedTLS12CipherSuites]. TLS 1.3 suites are not configurable in Go.
*/
package transport
