package client

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-soapws/pkg/message"
)

// MessageCallback populates the request message before it is sent
type MessageCallback interface {
	DoWithMessage(ctx context.Context, msg message.Message) error
}

// MessageCallbackFunc adapts a function to MessageCallback
type MessageCallbackFunc func(ctx context.Context, msg message.Message) error

// DoWithMessage implements MessageCallback
func (f MessageCallbackFunc) DoWithMessage(ctx context.Context, msg message.Message) error {
	return f(ctx, msg)
}

// PayloadCallback sets a copy of payload as the request body
func PayloadCallback(payload *etree.Element) MessageCallback {
	return MessageCallbackFunc(func(ctx context.Context, msg message.Message) error {
		if payload != nil {
			msg.SetPayload(payload.Copy())
		}
		return nil
	})
}

// SOAPActionCallback sets the SOAPAction of SOAP requests
func SOAPActionCallback(action string) MessageCallback {
	return MessageCallbackFunc(func(ctx context.Context, msg message.Message) error {
		if m, ok := msg.(interface{ SetSOAPAction(string) }); ok {
			m.SetSOAPAction(action)
		}
		return nil
	})
}

// Callbacks runs several callbacks in order, stopping at the first error
func Callbacks(callbacks ...MessageCallback) MessageCallback {
	return MessageCallbackFunc(func(ctx context.Context, msg message.Message) error {
		for _, cb := range callbacks {
			if cb == nil {
				continue
			}
			if err := cb.DoWithMessage(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

// Extractor converts a response message into a result
type Extractor[T any] interface {
	ExtractData(ctx context.Context, msg message.Message) (T, error)
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc[T any] func(ctx context.Context, msg message.Message) (T, error)

// ExtractData implements Extractor
func (f ExtractorFunc[T]) ExtractData(ctx context.Context, msg message.Message) (T, error) {
	return f(ctx, msg)
}

// PayloadExtractor returns a detached copy of the response payload, or nil
// when the body is empty
func PayloadExtractor() Extractor[*etree.Element] {
	return ExtractorFunc[*etree.Element](func(ctx context.Context, msg message.Message) (*etree.Element, error) {
		payload := msg.Payload()
		if payload == nil {
			return nil, nil
		}
		return payload.Copy(), nil
	})
}

// Marshaller converts a value into a payload element
type Marshaller interface {
	Marshal(v any) (*etree.Element, error)
}

// Unmarshaller converts a payload element into a value
type Unmarshaller interface {
	Unmarshal(payload *etree.Element, v any) error
}

// XMLMarshaller marshals with encoding/xml struct tags
type XMLMarshaller struct{}

// Marshal implements Marshaller
func (XMLMarshaller) Marshal(v any) (*etree.Element, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return message.ParseElement(data)
}

// Unmarshal implements Unmarshaller
func (XMLMarshaller) Unmarshal(payload *etree.Element, v any) error {
	data, err := message.ElementBytes(payload)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
