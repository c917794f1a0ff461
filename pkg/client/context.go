package client

import (
	"sort"

	"github.com/sirosfoundation/go-soapws/pkg/message"
)

// Outcome classifies how an exchange ended
type Outcome int

const (
	// OutcomeUnknown means the exchange stopped before it was classified
	OutcomeUnknown Outcome = iota
	// OutcomeExtracted means a response was handed to the extractor
	OutcomeExtracted
	// OutcomeNoResponse means no response message was available
	OutcomeNoResponse
	// OutcomeFaultResolved means a fault was suppressed by the fault resolver
	OutcomeFaultResolved
	// OutcomeFaultRaised means a fault was returned to the caller as an error
	OutcomeFaultRaised
	// OutcomeTransportError means the connection reported an error
	OutcomeTransportError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExtracted:
		return "extracted"
	case OutcomeNoResponse:
		return "no-response"
	case OutcomeFaultResolved:
		return "fault-resolved"
	case OutcomeFaultRaised:
		return "fault-raised"
	case OutcomeTransportError:
		return "transport-error"
	default:
		return "unknown"
	}
}

// MessageContext holds the request, the response and a property map for
// one exchange. It is owned by a single exchange and is not safe for
// concurrent use.
type MessageContext struct {
	request     message.Message
	response    message.Message
	factory     message.Factory
	properties  map[string]any
	destination string
	outcome     Outcome
}

// NewMessageContext creates a context around request. The factory is
// used to create the response on first access.
func NewMessageContext(request message.Message, factory message.Factory) *MessageContext {
	return &MessageContext{
		request:    request,
		factory:    factory,
		properties: make(map[string]any),
	}
}

// Request returns the request message
func (c *MessageContext) Request() message.Message {
	return c.request
}

// Response returns the response message, creating an empty one on first
// access if none was received or set
func (c *MessageContext) Response() message.Message {
	if c.response == nil {
		c.response = c.factory.CreateMessage()
	}
	return c.response
}

// HasResponse reports whether a response exists without creating one
func (c *MessageContext) HasResponse() bool {
	return c.response != nil
}

// SetResponse replaces the response message
func (c *MessageContext) SetResponse(response message.Message) {
	c.response = response
}

// Property returns the named property, or nil
func (c *MessageContext) Property(name string) any {
	return c.properties[name]
}

// SetProperty sets the named property
func (c *MessageContext) SetProperty(name string, value any) {
	c.properties[name] = value
}

// RemoveProperty deletes the named property
func (c *MessageContext) RemoveProperty(name string) {
	delete(c.properties, name)
}

// PropertyNames returns the property names in sorted order
func (c *MessageContext) PropertyNames() []string {
	names := make([]string, 0, len(c.properties))
	for name := range c.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Destination returns the URI the exchange was sent to
func (c *MessageContext) Destination() string {
	return c.destination
}

// Outcome returns the classification of the exchange. It is set before
// AfterCompletion runs.
func (c *MessageContext) Outcome() Outcome {
	return c.outcome
}
