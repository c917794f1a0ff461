package client

import (
	"context"
	"fmt"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-soapws/pkg/message"
	"github.com/sirosfoundation/go-soapws/pkg/transport"
)

// recorder collects the order of calls across interceptors and connections
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type recordingInterceptor struct {
	name string
	rec  *recorder

	stopRequest  bool
	stopResponse bool
	stopFault    bool
	requestErr   error
	responseErr  error
	faultErr     error

	onRequest func(mc *MessageContext)

	completionErrs []error
}

func newInterceptor(name string, rec *recorder) *recordingInterceptor {
	return &recordingInterceptor{name: name, rec: rec}
}

func (i *recordingInterceptor) HandleRequest(ctx context.Context, mc *MessageContext) (bool, error) {
	i.rec.add("%s.request", i.name)
	if i.onRequest != nil {
		i.onRequest(mc)
	}
	return !i.stopRequest, i.requestErr
}

func (i *recordingInterceptor) HandleResponse(ctx context.Context, mc *MessageContext) (bool, error) {
	i.rec.add("%s.response", i.name)
	return !i.stopResponse, i.responseErr
}

func (i *recordingInterceptor) HandleFault(ctx context.Context, mc *MessageContext) (bool, error) {
	i.rec.add("%s.fault", i.name)
	return !i.stopFault, i.faultErr
}

func (i *recordingInterceptor) AfterCompletion(ctx context.Context, mc *MessageContext, err error) {
	i.rec.add("%s.completion", i.name)
	i.completionErrs = append(i.completionErrs, err)
}

type fakeConnection struct {
	uri string
	rec *recorder

	// respond builds the response from the sent request; nil means no response
	respond func(req message.Message) message.Message

	hasError     bool
	errorMessage string
	sendErr      error
	receiveErr   error
	closeErr     error

	request message.Message
	sends   int
	recvs   int
	closes  int
}

func (c *fakeConnection) URI() string { return c.uri }

func (c *fakeConnection) Send(ctx context.Context, msg message.Message) error {
	c.rec.add("send")
	c.sends++
	c.request = msg
	return c.sendErr
}

func (c *fakeConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	c.rec.add("receive")
	c.recvs++
	if c.receiveErr != nil {
		return nil, c.receiveErr
	}
	if c.respond == nil {
		return nil, nil
	}
	return c.respond(c.request), nil
}

func (c *fakeConnection) HasError() bool       { return c.hasError }
func (c *fakeConnection) ErrorMessage() string { return c.errorMessage }

func (c *fakeConnection) Close() error {
	c.rec.add("close")
	c.closes++
	return c.closeErr
}

type faultAwareConnection struct {
	*fakeConnection
	hasFault bool
}

func (c *faultAwareConnection) HasFault() bool { return c.hasFault }

type fakeSender struct {
	supported map[string]bool
	conn      transport.Connection
	createErr error

	supportsCalls []string
	created       int
}

func (s *fakeSender) Supports(uri string) bool {
	s.supportsCalls = append(s.supportsCalls, uri)
	return s.supported == nil || s.supported[uri]
}

func (s *fakeSender) CreateConnection(ctx context.Context, uri string) (transport.Connection, error) {
	s.created++
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.conn, nil
}

// echo answers with a copy of the request payload
func echo(req message.Message) message.Message {
	resp := message.NewSOAPMessage(message.SOAP11)
	if p := req.Payload(); p != nil {
		resp.SetPayload(p.Copy())
	}
	return resp
}

func faultResponse(req message.Message) message.Message {
	resp := message.NewSOAPMessage(message.SOAP11)
	resp.AddFault("Server", "Something went wrong")
	return resp
}

func element(tag, text string) *etree.Element {
	el := etree.NewElement(tag)
	el.SetText(text)
	return el
}

func newTestTemplate(conn transport.Connection, interceptors ...Interceptor) (*Template, *fakeSender) {
	sender := &fakeSender{conn: conn}
	tmpl, err := NewTemplate(Config{
		Senders:      []transport.Sender{sender},
		Interceptors: interceptors,
		DefaultURI:   "http://example.com/ws",
	})
	if err != nil {
		panic(err)
	}
	return tmpl, sender
}
