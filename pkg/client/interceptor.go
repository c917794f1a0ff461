package client

import "context"

// Interceptor observes and gates an exchange.
//
// HandleRequest is called in configured order before the request is sent.
// Returning false stops the request phase and the request is not sent.
// HandleResponse and HandleFault are called in reverse order on the
// interceptors whose HandleRequest ran; returning false skips the
// remaining ones. AfterCompletion is called in reverse order on every
// interceptor whose HandleRequest ran, with the error about to be
// returned to the caller.
type Interceptor interface {
	HandleRequest(ctx context.Context, mc *MessageContext) (bool, error)
	HandleResponse(ctx context.Context, mc *MessageContext) (bool, error)
	HandleFault(ctx context.Context, mc *MessageContext) (bool, error)
	AfterCompletion(ctx context.Context, mc *MessageContext, err error)
}

// InterceptorAdapter implements Interceptor with pass-through methods.
// Embed it to implement only the hooks you need.
type InterceptorAdapter struct{}

func (InterceptorAdapter) HandleRequest(ctx context.Context, mc *MessageContext) (bool, error) {
	return true, nil
}

func (InterceptorAdapter) HandleResponse(ctx context.Context, mc *MessageContext) (bool, error) {
	return true, nil
}

func (InterceptorAdapter) HandleFault(ctx context.Context, mc *MessageContext) (bool, error) {
	return true, nil
}

func (InterceptorAdapter) AfterCompletion(ctx context.Context, mc *MessageContext, err error) {}
