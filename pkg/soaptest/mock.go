// Package soaptest provides transport doubles for testing code that uses
// the client package.
//
// A [MockSender] holds an ordered list of expectations. Each sent request
// consumes the next expectation, is checked against its matchers and is
// answered by its response creator:
//
//	sender := soaptest.NewMockSender()
//	sender.Expect(soaptest.PayloadContains("<getOrder")).
//	    AndRespond(soaptest.WithPayloadString(`<order id="1"/>`))
//
//	tmpl, _ := client.NewTemplate(client.Config{
//	    Senders:    []transport.Sender{sender},
//	    DefaultURI: "http://orders.test/ws",
//	})
//	...
//	require.NoError(t, sender.Verify())
package soaptest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/sirosfoundation/go-soapws/pkg/message"
	"github.com/sirosfoundation/go-soapws/pkg/transport"
)

var (
	// ErrUnexpectedRequest is returned when a request arrives after all expectations were used
	ErrUnexpectedRequest = errors.New("no further requests expected")
	// ErrRequestMismatch is returned when a request fails a matcher
	ErrRequestMismatch = errors.New("request does not match expectation")
)

// Expectation pairs request matchers with a response creator
type Expectation struct {
	matchers []RequestMatcher
	creator  ResponseCreator
}

// AndRespond sets the response creator. Without one the exchange yields no response.
func (e *Expectation) AndRespond(creator ResponseCreator) {
	e.creator = creator
}

// MockSender is a transport.Sender answering from expectations. It
// supports every URI.
type MockSender struct {
	mu           sync.Mutex
	expectations []*Expectation
	next         int
	connections  []*MockConnection
	errs         error
}

// NewMockSender creates a sender without expectations
func NewMockSender() *MockSender {
	return &MockSender{}
}

// Expect adds an expectation for the next unmatched request
func (s *MockSender) Expect(matchers ...RequestMatcher) *Expectation {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &Expectation{matchers: matchers}
	s.expectations = append(s.expectations, e)
	return e
}

// Supports implements transport.Sender
func (s *MockSender) Supports(uri string) bool {
	return true
}

// CreateConnection implements transport.Sender
func (s *MockSender) CreateConnection(ctx context.Context, uri string) (transport.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn := &MockConnection{uri: uri, sender: s}
	s.connections = append(s.connections, conn)
	return conn, nil
}

// Connections returns the connections created so far
func (s *MockSender) Connections() []*MockConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*MockConnection(nil), s.connections...)
}

// Verify reports unmet expectations, failed matches and unclosed connections
func (s *MockSender) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.errs
	if remaining := len(s.expectations) - s.next; remaining > 0 {
		err = multierr.Append(err, fmt.Errorf("%d expected request(s) not sent", remaining))
	}
	for _, c := range s.connections {
		if !c.closed {
			err = multierr.Append(err, fmt.Errorf("connection to %s not closed", c.uri))
		}
	}
	return err
}

// Reset drops all expectations, connections and recorded errors
func (s *MockSender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expectations = nil
	s.next = 0
	s.connections = nil
	s.errs = nil
}

func (s *MockSender) take(uri string, request message.Message) (*Expectation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.expectations) {
		err := fmt.Errorf("%w: %s", ErrUnexpectedRequest, uri)
		s.errs = multierr.Append(s.errs, err)
		return nil, err
	}
	e := s.expectations[s.next]
	s.next++

	for _, m := range e.matchers {
		if err := m.Match(uri, request); err != nil {
			err = fmt.Errorf("%w %d: %v", ErrRequestMismatch, s.next, err)
			s.errs = multierr.Append(s.errs, err)
			return nil, err
		}
	}
	return e, nil
}

// MockConnection is the connection created by MockSender
type MockConnection struct {
	uri    string
	sender *MockSender

	request  message.Message
	response *Response
	sends    int
	receives int
	closed   bool
}

// URI implements transport.Connection
func (c *MockConnection) URI() string {
	return c.uri
}

// Send implements transport.Connection
func (c *MockConnection) Send(ctx context.Context, msg message.Message) error {
	c.sends++
	c.request = msg

	e, err := c.sender.take(c.uri, msg)
	if err != nil {
		return err
	}

	c.response = &Response{}
	if e.creator != nil {
		if c.response, err = e.creator(msg); err != nil {
			return err
		}
	}
	return c.response.SendErr
}

// Receive implements transport.Connection
func (c *MockConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	c.receives++
	if c.response == nil {
		return nil, transport.ErrNotSent
	}
	if c.response.ReceiveErr != nil {
		return nil, c.response.ReceiveErr
	}
	if c.response.build == nil {
		return nil, nil
	}
	return c.response.build(factory)
}

// HasError implements transport.Connection
func (c *MockConnection) HasError() bool {
	return c.response != nil && c.response.ErrorMessage != ""
}

// ErrorMessage implements transport.Connection
func (c *MockConnection) ErrorMessage() string {
	if c.response == nil {
		return ""
	}
	return c.response.ErrorMessage
}

// HasFault implements transport.FaultAwareConnection
func (c *MockConnection) HasFault() bool {
	return c.response != nil && c.response.Fault
}

// Close implements transport.Connection
func (c *MockConnection) Close() error {
	c.sender.mu.Lock()
	defer c.sender.mu.Unlock()
	c.closed = true
	return nil
}

// Request returns the last sent request
func (c *MockConnection) Request() message.Message {
	return c.request
}

// Sends returns the number of Send calls
func (c *MockConnection) Sends() int {
	return c.sends
}

// Receives returns the number of Receive calls
func (c *MockConnection) Receives() int {
	return c.receives
}

// Closed reports whether Close was called
func (c *MockConnection) Closed() bool {
	c.sender.mu.Lock()
	defer c.sender.mu.Unlock()
	return c.closed
}
