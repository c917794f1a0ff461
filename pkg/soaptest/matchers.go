package soaptest

import (
	"fmt"
	"strings"

	"github.com/sirosfoundation/go-soapws/pkg/message"
)

// RequestMatcher checks a request sent to uri
type RequestMatcher interface {
	Match(uri string, request message.Message) error
}

// RequestMatcherFunc adapts a function to RequestMatcher
type RequestMatcherFunc func(uri string, request message.Message) error

// Match implements RequestMatcher
func (f RequestMatcherFunc) Match(uri string, request message.Message) error {
	return f(uri, request)
}

// ConnectionTo matches the destination URI
func ConnectionTo(want string) RequestMatcher {
	return RequestMatcherFunc(func(uri string, request message.Message) error {
		if uri != want {
			return fmt.Errorf("destination %q, want %q", uri, want)
		}
		return nil
	})
}

// PayloadContains matches when the serialized payload contains s
func PayloadContains(s string) RequestMatcher {
	return RequestMatcherFunc(func(uri string, request message.Message) error {
		data, err := message.ElementBytes(request.Payload())
		if err != nil {
			return err
		}
		if !strings.Contains(string(data), s) {
			return fmt.Errorf("payload %q does not contain %q", data, s)
		}
		return nil
	})
}

// PayloadRoot matches the local name of the payload element
func PayloadRoot(local string) RequestMatcher {
	return RequestMatcherFunc(func(uri string, request message.Message) error {
		p := request.Payload()
		if p == nil {
			return fmt.Errorf("empty payload, want <%s>", local)
		}
		if p.Tag != local {
			return fmt.Errorf("payload root <%s>, want <%s>", p.Tag, local)
		}
		return nil
	})
}

// SOAPActionEquals matches the SOAPAction of a SOAP request
func SOAPActionEquals(action string) RequestMatcher {
	return RequestMatcherFunc(func(uri string, request message.Message) error {
		soap, ok := request.(*message.SOAPMessage)
		if !ok {
			return fmt.Errorf("request is not a SOAP message")
		}
		if soap.SOAPAction() != action {
			return fmt.Errorf("SOAPAction %q, want %q", soap.SOAPAction(), action)
		}
		return nil
	})
}

// HeaderExists matches when the request carries the named header element
func HeaderExists(namespace, local string) RequestMatcher {
	return RequestMatcherFunc(func(uri string, request message.Message) error {
		soap, ok := request.(*message.SOAPMessage)
		if !ok {
			return fmt.Errorf("request is not a SOAP message")
		}
		if soap.HeaderElement(namespace, local) == nil {
			return fmt.Errorf("header {%s}%s not found", namespace, local)
		}
		return nil
	})
}
