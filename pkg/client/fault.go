package client

import (
	"context"

	"github.com/sirosfoundation/go-soapws/pkg/message"
)

// FaultResolver handles a fault response. Returning nil suppresses the
// fault and the exchange yields no result. A returned error is passed to
// the caller.
type FaultResolver interface {
	ResolveFault(ctx context.Context, response message.Message) error
}

// FaultResolverFunc adapts a function to FaultResolver
type FaultResolverFunc func(ctx context.Context, response message.Message) error

// ResolveFault implements FaultResolver
func (f FaultResolverFunc) ResolveFault(ctx context.Context, response message.Message) error {
	return f(ctx, response)
}

// DefaultFaultResolver returns a *FaultError for every fault
type DefaultFaultResolver struct{}

// ResolveFault implements FaultResolver
func (DefaultFaultResolver) ResolveFault(ctx context.Context, response message.Message) error {
	return NewFaultError(response)
}

// SuppressFaults resolves every fault without an error
var SuppressFaults FaultResolver = FaultResolverFunc(func(ctx context.Context, response message.Message) error {
	return nil
})
