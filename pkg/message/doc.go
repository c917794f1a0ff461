// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package message provides the SOAP message model used by the client.

Messages are backed by an [etree.Document] holding a SOAP 1.1 or SOAP 1.2
envelope. The body payload is exposed as a single element; an empty body
is reported as a nil payload.

# Creating Messages

A [Factory] is bound to one protocol version:

	factory := message.NewFactory(message.SOAP12)
	msg := factory.CreateMessage()

	order := etree.NewElement("Order")
	order.CreateAttr("xmlns", "urn:example:orders")
	order.CreateElement("OrderID").SetText("ORD-12345")
	msg.SetPayload(order)

# Reading Messages

Received envelopes are parsed with [Factory.ReadMessage]. The envelope
namespace must match the factory version.

# Faults

A response whose body carries a SOAP Fault reports HasFault. The fault
code, reason, actor and detail are available through [SOAPMessage.Fault]
for both protocol versions:

	if sm, ok := msg.(*message.SOAPMessage); ok && sm.HasFault() {
	    f := sm.Fault()
	    log.Printf("%s: %s", f.Code, f.Reason)
	}

# References

  - SOAP 1.1: https://www.w3.org/TR/2000/NOTE-SOAP-20000508/
  - SOAP 1.2: https://www.w3.org/TR/soap12-part1/
*/
package message
