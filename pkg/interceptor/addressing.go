package interceptor

import (
	"context"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/sirosfoundation/go-soapws/pkg/client"
	"github.com/sirosfoundation/go-soapws/pkg/message"
)

const (
	// PropertyMessageID holds the wsa:MessageID of the request
	PropertyMessageID = "wsa.MessageID"
	// PropertyRelatesTo holds the wsa:RelatesTo of the response
	PropertyRelatesTo = "wsa.RelatesTo"

	// AnonymousAddress is the WS-Addressing anonymous endpoint
	AnonymousAddress = message.NsWSA + "/anonymous"

	wsaPrefix = "wsa"
)

// ErrRelatesToMismatch is returned in strict mode when the response does
// not relate to the request
var ErrRelatesToMismatch = errors.New("wsa:RelatesTo does not match wsa:MessageID")

// AddressingConfig configures the Addressing interceptor
type AddressingConfig struct {
	// Action is sent as wsa:Action; the request SOAPAction is used when empty
	Action string
	// ReplyTo is sent as wsa:ReplyTo/wsa:Address (default anonymous)
	ReplyTo string
	// Strict rejects responses whose RelatesTo differs from the MessageID
	Strict bool
}

// Addressing adds WS-Addressing headers to SOAP requests
type Addressing struct {
	client.InterceptorAdapter
	config AddressingConfig
	newID  func() string
}

// NewAddressing creates an Addressing interceptor
func NewAddressing(config AddressingConfig) *Addressing {
	if config.ReplyTo == "" {
		config.ReplyTo = AnonymousAddress
	}
	return &Addressing{
		config: config,
		newID:  func() string { return "urn:uuid:" + uuid.NewString() },
	}
}

// HandleRequest implements client.Interceptor
func (a *Addressing) HandleRequest(ctx context.Context, mc *client.MessageContext) (bool, error) {
	req, ok := mc.Request().(*message.SOAPMessage)
	if !ok {
		return true, nil
	}

	id := a.newID()
	a.header(req, "MessageID").SetText(id)
	if mc.Destination() != "" {
		a.header(req, "To").SetText(mc.Destination())
	}

	action := a.config.Action
	if action == "" {
		action = req.SOAPAction()
	}
	if action != "" {
		a.header(req, "Action").SetText(action)
	}

	replyTo := a.header(req, "ReplyTo")
	replyTo.CreateElement(wsaPrefix + ":Address").SetText(a.config.ReplyTo)

	mc.SetProperty(PropertyMessageID, id)
	return true, nil
}

// HandleResponse implements client.Interceptor
func (a *Addressing) HandleResponse(ctx context.Context, mc *client.MessageContext) (bool, error) {
	return a.correlate(mc)
}

// HandleFault implements client.Interceptor
func (a *Addressing) HandleFault(ctx context.Context, mc *client.MessageContext) (bool, error) {
	return a.correlate(mc)
}

func (a *Addressing) correlate(mc *client.MessageContext) (bool, error) {
	if !mc.HasResponse() {
		return true, nil
	}
	resp, ok := mc.Response().(*message.SOAPMessage)
	if !ok {
		return true, nil
	}

	var relatesTo string
	if el := resp.HeaderElement(message.NsWSA, "RelatesTo"); el != nil {
		relatesTo = el.Text()
		mc.SetProperty(PropertyRelatesTo, relatesTo)
	}

	if a.config.Strict {
		id, _ := mc.Property(PropertyMessageID).(string)
		if relatesTo != id {
			return false, fmt.Errorf("%w: got %q, want %q", ErrRelatesToMismatch, relatesTo, id)
		}
	}
	return true, nil
}

func (a *Addressing) header(msg *message.SOAPMessage, local string) *etree.Element {
	return msg.AddHeaderElement(message.NsWSA, wsaPrefix, local)
}
