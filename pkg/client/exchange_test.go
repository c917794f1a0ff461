package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/sirosfoundation/go-soapws/pkg/destination"
	"github.com/sirosfoundation/go-soapws/pkg/message"
	"github.com/sirosfoundation/go-soapws/pkg/transport"
)

func TestSendAndReceive_AllInterceptorsPass(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}
	a, b := newInterceptor("A", rec), newInterceptor("B", rec)
	tmpl, _ := newTestTemplate(conn, a, b)

	result, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", "hello"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "ping", result.Tag)
	assert.Equal(t, "hello", result.Text())

	assert.Equal(t, []string{
		"A.request", "B.request",
		"send", "receive",
		"B.response", "A.response",
		"B.completion", "A.completion",
		"close",
	}, rec.events)
	assert.Equal(t, []error{nil}, a.completionErrs)
	assert.Equal(t, []error{nil}, b.completionErrs)
}

func TestSendAndReceive_CompletionReverseOrder(t *testing.T) {
	for n := 0; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d interceptors", n), func(t *testing.T) {
			rec := &recorder{}
			conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}

			var interceptors []Interceptor
			var want []string
			for i := 0; i < n; i++ {
				interceptors = append(interceptors, newInterceptor(fmt.Sprint(i), rec))
				want = append([]string{fmt.Sprintf("%d.completion", i)}, want...)
			}
			tmpl, _ := newTestTemplate(conn, interceptors...)

			require.NoError(t, tmpl.Send(context.Background(), "", nil))

			var got []string
			for _, e := range rec.events {
				if strings.HasSuffix(e, ".completion") {
					got = append(got, e)
				}
			}
			if n == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestSendAndReceive_RequestShortCircuit(t *testing.T) {
	for stop := 0; stop < 4; stop++ {
		t.Run(fmt.Sprintf("stop at %d", stop), func(t *testing.T) {
			rec := &recorder{}
			conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}

			interceptors := make([]*recordingInterceptor, 4)
			list := make([]Interceptor, 4)
			for i := range interceptors {
				interceptors[i] = newInterceptor(fmt.Sprint(i), rec)
				list[i] = interceptors[i]
			}
			interceptors[stop].stopRequest = true
			tmpl, _ := newTestTemplate(conn, list...)

			result, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
			require.NoError(t, err)
			assert.Nil(t, result)

			assert.Zero(t, conn.sends)
			assert.Zero(t, conn.recvs)
			assert.Equal(t, 1, conn.closes)

			var want []string
			for i := 0; i <= stop; i++ {
				want = append(want, fmt.Sprintf("%d.request", i))
			}
			for i := stop; i >= 0; i-- {
				want = append(want, fmt.Sprintf("%d.completion", i))
			}
			want = append(want, "close")
			assert.Equal(t, want, rec.events)

			for i := stop + 1; i < 4; i++ {
				assert.Empty(t, interceptors[i].completionErrs, "interceptor %d", i)
			}
		})
	}
}

func TestSendAndReceive_InterceptedWithForcedResponse(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}

	a := newInterceptor("A", rec)
	b := newInterceptor("B", rec)
	b.stopRequest = true
	b.onRequest = func(mc *MessageContext) {
		mc.Response().SetPayload(element("cached", "from interceptor"))
	}
	tmpl, _ := newTestTemplate(conn, a, b)

	var outcome Outcome
	probe := &outcomeProbe{outcome: &outcome}
	tmpl.interceptors = append([]Interceptor{probe}, tmpl.interceptors...)

	result, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "cached", result.Tag)
	assert.Equal(t, "from interceptor", result.Text())

	assert.Zero(t, conn.sends)
	assert.Zero(t, conn.recvs)
	assert.Equal(t, []string{
		"A.request", "B.request",
		"A.response",
		"B.completion", "A.completion",
		"close",
	}, rec.events)
	assert.Equal(t, []error{nil}, a.completionErrs)
	assert.Equal(t, []error{nil}, b.completionErrs)
	assert.Equal(t, OutcomeExtracted, outcome)
}

// outcomeProbe captures the outcome visible at completion time
type outcomeProbe struct {
	InterceptorAdapter
	outcome *Outcome
}

func (p *outcomeProbe) AfterCompletion(ctx context.Context, mc *MessageContext, err error) {
	*p.outcome = mc.Outcome()
}

func TestSendAndReceive_ConnectionError(t *testing.T) {
	rec := &recorder{}
	conn := &faultAwareConnection{
		fakeConnection: &fakeConnection{
			uri:          "http://example.com/ws",
			rec:          rec,
			respond:      faultResponse,
			hasError:     true,
			errorMessage: "Service Unavailable",
		},
		hasFault: true,
	}
	a := newInterceptor("A", rec)
	tmpl, _ := newTestTemplate(conn, a)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.Error(t, err)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Service Unavailable", te.Message)
	assert.Equal(t, "Service Unavailable", err.Error())
	assert.Equal(t, "http://example.com/ws", te.URI)

	var fe *FaultError
	assert.False(t, errors.As(err, &fe))

	assert.Equal(t, []string{"A.request", "send", "A.completion", "close"}, rec.events)
	require.Len(t, a.completionErrs, 1)
	assert.Same(t, te, a.completionErrs[0])
}

func TestSendAndReceive_ConnectionErrorWithoutBody(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{
		uri:          "http://example.com/ws",
		rec:          rec,
		hasError:     true,
		errorMessage: "Bad Gateway",
	}
	a := newInterceptor("A", rec)
	tmpl, _ := newTestTemplate(conn, a)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Bad Gateway", err.Error())
	assert.Zero(t, conn.recvs)
	assert.NotContains(t, rec.events, "A.response")
}

func TestSendAndReceive_SkipErrorCheck(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{
		uri:          "http://example.com/ws",
		rec:          rec,
		respond:      echo,
		hasError:     true,
		errorMessage: "Bad Gateway",
	}
	tmpl, err := NewTemplate(Config{
		Senders:        []transport.Sender{&fakeSender{conn: conn}},
		DefaultURI:     "http://example.com/ws",
		SkipErrorCheck: true,
	})
	require.NoError(t, err)

	result, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "ping", result.Tag)
}

func TestSendAndReceive_SendError(t *testing.T) {
	rec := &recorder{}
	ioErr := errors.New("connection reset by peer")
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, sendErr: ioErr}
	a := newInterceptor("A", rec)
	tmpl, _ := newTestTemplate(conn, a)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, ioErr)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "connection reset by peer", err.Error())
	assert.Zero(t, conn.recvs)
	assert.Equal(t, 1, conn.closes)
	assert.Equal(t, []error{err}, a.completionErrs)
}

func TestSendAndReceive_ReceiveError(t *testing.T) {
	rec := &recorder{}
	ioErr := errors.New("unexpected EOF")
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, receiveErr: ioErr}
	tmpl, _ := newTestTemplate(conn)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", nil)
	assert.ErrorIs(t, err, ioErr)
	assert.Equal(t, 1, conn.closes)
}

func TestSendAndReceive_NoResponse(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec}
	a := newInterceptor("A", rec)
	tmpl, _ := newTestTemplate(conn, a)

	var outcome Outcome
	tmpl.interceptors = append(tmpl.interceptors, &outcomeProbe{outcome: &outcome})

	result, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.NoError(t, err)
	assert.Nil(t, result)

	assert.Equal(t, []string{
		"A.request", "send", "receive",
		"A.response",
		"A.completion", "close",
	}, rec.events)
	assert.Equal(t, []error{nil}, a.completionErrs)
	assert.Equal(t, OutcomeNoResponse, outcome)
}

func TestSendPayloadToWriter_NoResponse(t *testing.T) {
	conn := &fakeConnection{uri: "http://example.com/ws", rec: &recorder{}}
	tmpl, _ := newTestTemplate(conn)

	var buf bytes.Buffer
	received, err := tmpl.SendPayloadToWriter(context.Background(), "", element("ping", ""), &buf)
	require.NoError(t, err)
	assert.False(t, received)
	assert.Zero(t, buf.Len())
}

func TestSendPayloadToWriter(t *testing.T) {
	conn := &fakeConnection{uri: "http://example.com/ws", rec: &recorder{}, respond: echo}
	tmpl, _ := newTestTemplate(conn)

	var buf bytes.Buffer
	received, err := tmpl.SendPayloadToWriter(context.Background(), "", element("ping", "pong"), &buf)
	require.NoError(t, err)
	assert.True(t, received)
	assert.Equal(t, "<ping>pong</ping>", buf.String())
}

func TestSendAndReceive_FaultWithoutResolver(t *testing.T) {
	rec := &recorder{}
	conn := &faultAwareConnection{
		fakeConnection: &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: faultResponse},
		hasFault:       true,
	}
	a, b := newInterceptor("A", rec), newInterceptor("B", rec)
	tmpl, _ := newTestTemplate(conn, a, b)

	result, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	assert.Nil(t, result)

	var fe *FaultError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "soapenv:Server", fe.Code)
	assert.Equal(t, "Something went wrong", fe.Reason)
	assert.NotNil(t, fe.Response)

	assert.Equal(t, []string{
		"A.request", "B.request",
		"send", "receive",
		"B.fault", "A.fault",
		"B.completion", "A.completion",
		"close",
	}, rec.events)
	assert.Equal(t, []error{err}, a.completionErrs)
}

func TestSendAndReceive_FaultSuppressed(t *testing.T) {
	rec := &recorder{}
	conn := &faultAwareConnection{
		fakeConnection: &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: faultResponse},
		hasFault:       true,
	}

	var resolved message.Message
	var outcome Outcome
	tmpl, err := NewTemplate(Config{
		Senders:    []transport.Sender{&fakeSender{conn: conn}},
		DefaultURI: "http://example.com/ws",
		FaultResolver: FaultResolverFunc(func(ctx context.Context, response message.Message) error {
			resolved = response
			return nil
		}),
		Interceptors: []Interceptor{&outcomeProbe{outcome: &outcome}},
	})
	require.NoError(t, err)

	result, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.NoError(t, err)
	assert.Nil(t, result)
	require.NotNil(t, resolved)
	assert.True(t, resolved.(message.FaultAwareMessage).HasFault())
	assert.Equal(t, OutcomeFaultResolved, outcome)
}

func TestSendAndReceive_MessageFaultFallback(t *testing.T) {
	conn := &fakeConnection{uri: "http://example.com/ws", rec: &recorder{}, respond: faultResponse}
	tmpl, _ := newTestTemplate(conn)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))

	var fe *FaultError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Something went wrong", fe.Reason)
}

func TestSendAndReceive_SkipFaultCheck(t *testing.T) {
	conn := &faultAwareConnection{
		fakeConnection: &fakeConnection{uri: "http://example.com/ws", rec: &recorder{}, respond: faultResponse},
		hasFault:       true,
	}
	tmpl, err := NewTemplate(Config{
		Senders:        []transport.Sender{&fakeSender{conn: conn}},
		DefaultURI:     "http://example.com/ws",
		SkipFaultCheck: true,
	})
	require.NoError(t, err)

	result, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Fault", result.Tag)
}

func TestSendAndReceive_FaultInterceptorErrorCombined(t *testing.T) {
	rec := &recorder{}
	conn := &faultAwareConnection{
		fakeConnection: &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: faultResponse},
		hasFault:       true,
	}
	a := newInterceptor("A", rec)
	hookErr := errors.New("fault hook failed")
	a.faultErr = hookErr
	tmpl, _ := newTestTemplate(conn, a)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, hookErr)

	var fe *FaultError
	assert.True(t, errors.As(err, &fe))
	assert.Len(t, multierr.Errors(err), 2)
}

func TestSendAndReceive_ResponsePhaseShortCircuit(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}
	a, b, c := newInterceptor("A", rec), newInterceptor("B", rec), newInterceptor("C", rec)
	b.stopResponse = true
	tmpl, _ := newTestTemplate(conn, a, b, c)

	result, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, []string{
		"A.request", "B.request", "C.request",
		"send", "receive",
		"C.response", "B.response",
		"C.completion", "B.completion", "A.completion",
		"close",
	}, rec.events)
}

func TestSendAndReceive_InterceptorError(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}
	a, b, c := newInterceptor("A", rec), newInterceptor("B", rec), newInterceptor("C", rec)
	hookErr := errors.New("request rejected")
	b.requestErr = hookErr
	tmpl, _ := newTestTemplate(conn, a, b, c)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.ErrorIs(t, err, hookErr)

	assert.Zero(t, conn.sends)
	assert.Equal(t, []string{
		"A.request", "B.request",
		"B.completion", "A.completion",
		"close",
	}, rec.events)
	assert.Equal(t, []error{hookErr}, a.completionErrs)
	assert.Equal(t, []error{hookErr}, b.completionErrs)
	assert.Empty(t, c.completionErrs)
}

func TestSendAndReceive_ExtractorError(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}
	a := newInterceptor("A", rec)
	tmpl, _ := newTestTemplate(conn, a)

	extractErr := errors.New("cannot decode")
	_, err := SendAndReceive(context.Background(), tmpl, nil,
		ExtractorFunc[string](func(ctx context.Context, msg message.Message) (string, error) {
			return "", extractErr
		}))
	require.ErrorIs(t, err, extractErr)
	assert.Equal(t, []error{extractErr}, a.completionErrs)
	assert.Equal(t, 1, conn.closes)
}

func TestSendAndReceive_PopulatorError(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}
	a := newInterceptor("A", rec)
	tmpl, _ := newTestTemplate(conn, a)

	populateErr := errors.New("cannot build request")
	_, err := SendAndReceive[string](context.Background(), tmpl,
		MessageCallbackFunc(func(ctx context.Context, msg message.Message) error {
			return populateErr
		}), nil)
	require.ErrorIs(t, err, populateErr)
	assert.Equal(t, []string{"close"}, rec.events)
}

func TestSendAndReceive_RoundTrip(t *testing.T) {
	conn := &fakeConnection{uri: "http://example.com/ws", rec: &recorder{}, respond: echo}
	tmpl, _ := newTestTemplate(conn)

	populator := MessageCallbackFunc(func(ctx context.Context, msg message.Message) error {
		msg.SetPayload(element("value", "42"))
		return nil
	})
	extractor := ExtractorFunc[string](func(ctx context.Context, msg message.Message) (string, error) {
		if msg.Payload() == nil {
			return "", nil
		}
		return msg.Payload().Text(), nil
	})

	got, err := SendAndReceive(context.Background(), tmpl, populator, extractor)
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}

func TestSendAndReceive_EmptyPayloadExtractsEmpty(t *testing.T) {
	conn := &fakeConnection{uri: "http://example.com/ws", rec: &recorder{}, respond: echo}
	tmpl, _ := newTestTemplate(conn)

	result, err := tmpl.SendPayloadAndReceive(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestDestinationPrecedence(t *testing.T) {
	provider := destination.Static("http://provider.example.com/ws")

	tests := []struct {
		name     string
		explicit string
		provider destination.Provider
		fallback string
		want     string
		wantErr  error
	}{
		{
			name:     "explicit over provider and default",
			explicit: "http://explicit.example.com/ws",
			provider: provider,
			fallback: "http://default.example.com/ws",
			want:     "http://explicit.example.com/ws",
		},
		{
			name:     "provider over default",
			provider: provider,
			fallback: "http://default.example.com/ws",
			want:     "http://provider.example.com/ws",
		},
		{
			name:     "default when provider has nothing",
			provider: destination.Static(""),
			fallback: "http://default.example.com/ws",
			want:     "http://default.example.com/ws",
		},
		{
			name:     "default only",
			fallback: "http://default.example.com/ws",
			want:     "http://default.example.com/ws",
		},
		{
			name:    "nothing configured",
			wantErr: ErrNoDestination,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConnection{uri: tt.want, rec: &recorder{}}
			sender := &fakeSender{conn: conn}
			tmpl, err := NewTemplate(Config{
				Senders:             []transport.Sender{sender},
				DestinationProvider: tt.provider,
				DefaultURI:          tt.fallback,
			})
			require.NoError(t, err)

			err = tmpl.Send(context.Background(), tt.explicit, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrPrecondition)
				assert.Empty(t, sender.supportsCalls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, sender.supportsCalls)
		})
	}
}

func TestDestinationProviderError(t *testing.T) {
	lookupErr := errors.New("dns timeout")
	sender := &fakeSender{}
	tmpl, err := NewTemplate(Config{
		Senders: []transport.Sender{sender},
		DestinationProvider: destination.ProviderFunc(func(ctx context.Context) (string, error) {
			return "", lookupErr
		}),
		DefaultURI: "http://default.example.com/ws",
	})
	require.NoError(t, err)

	err = tmpl.Send(context.Background(), "", nil)
	assert.ErrorIs(t, err, lookupErr)
	assert.Empty(t, sender.supportsCalls)
}

func TestSenderSelection(t *testing.T) {
	rec := &recorder{}
	first := &fakeSender{supported: map[string]bool{}}
	second := &fakeSender{conn: &fakeConnection{uri: "jms:queue", rec: rec}}
	third := &fakeSender{conn: &fakeConnection{uri: "jms:queue", rec: rec}}

	tmpl, err := NewTemplate(Config{Senders: []transport.Sender{first, second, third}})
	require.NoError(t, err)

	require.NoError(t, tmpl.Send(context.Background(), "jms:queue", nil))
	assert.Zero(t, first.created)
	assert.Equal(t, 1, second.created)
	assert.Empty(t, third.supportsCalls)
}

func TestNoSender(t *testing.T) {
	sender := &fakeSender{supported: map[string]bool{}}
	tmpl, err := NewTemplate(Config{Senders: []transport.Sender{sender}})
	require.NoError(t, err)

	err = tmpl.Send(context.Background(), "ftp://example.com", nil)
	assert.ErrorIs(t, err, ErrNoSender)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Zero(t, sender.created)
}

func TestConnectionCreationError(t *testing.T) {
	createErr := errors.New("dial tcp: connection refused")
	rec := &recorder{}
	a := newInterceptor("A", rec)
	tmpl, err := NewTemplate(Config{
		Senders:      []transport.Sender{&fakeSender{createErr: createErr}},
		Interceptors: []Interceptor{a},
	})
	require.NoError(t, err)

	err = tmpl.Send(context.Background(), "http://example.com", nil)
	assert.Same(t, createErr, err)
	assert.Empty(t, rec.events)
}

func TestCloseErrorIsNotReturned(t *testing.T) {
	conn := &fakeConnection{uri: "http://example.com/ws", rec: &recorder{}, respond: echo, closeErr: errors.New("close failed")}
	tmpl, _ := newTestTemplate(conn)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	require.NoError(t, err)
	assert.Equal(t, 1, conn.closes)
}

type order struct {
	ID    string `xml:"id"`
	Total int    `xml:"total"`
}

type orderRequest struct {
	XMLName struct{} `xml:"urn:orders getOrder"`
	ID      string   `xml:"id"`
}

type orderResponse struct {
	XMLName struct{} `xml:"urn:orders order"`
	order
}

func TestMarshalSendAndReceive(t *testing.T) {
	conn := &fakeConnection{
		uri: "http://example.com/ws",
		rec: &recorder{},
		respond: func(req message.Message) message.Message {
			id := req.Payload().SelectElement("id").Text()
			resp := message.NewSOAPMessage(message.SOAP11)
			payload, err := XMLMarshaller{}.Marshal(orderResponse{order: order{ID: id, Total: 99}})
			if err != nil {
				panic(err)
			}
			resp.SetPayload(payload)
			return resp
		},
	}
	tmpl, err := NewTemplate(Config{
		Senders:      []transport.Sender{&fakeSender{conn: conn}},
		DefaultURI:   "http://example.com/ws",
		Marshaller:   XMLMarshaller{},
		Unmarshaller: XMLMarshaller{},
	})
	require.NoError(t, err)

	var resp orderResponse
	received, err := tmpl.MarshalSendAndReceive(context.Background(), "", orderRequest{ID: "A-17"}, &resp)
	require.NoError(t, err)
	assert.True(t, received)
	assert.Equal(t, "A-17", resp.ID)
	assert.Equal(t, 99, resp.Total)
}

func TestMarshalSendAndReceive_Preconditions(t *testing.T) {
	sender := &fakeSender{}

	tmpl, err := NewTemplate(Config{
		Senders:    []transport.Sender{sender},
		DefaultURI: "http://example.com/ws",
	})
	require.NoError(t, err)

	_, err = tmpl.MarshalSendAndReceive(context.Background(), "", orderRequest{}, nil)
	assert.ErrorIs(t, err, ErrNoMarshaller)
	assert.ErrorIs(t, err, ErrPrecondition)

	tmpl, err = NewTemplate(Config{
		Senders:    []transport.Sender{sender},
		DefaultURI: "http://example.com/ws",
		Marshaller: XMLMarshaller{},
	})
	require.NoError(t, err)

	var resp orderResponse
	_, err = tmpl.MarshalSendAndReceive(context.Background(), "", orderRequest{}, &resp)
	assert.ErrorIs(t, err, ErrNoUnmarshaller)

	assert.Empty(t, sender.supportsCalls)
	assert.Zero(t, sender.created)
}

func TestNewTemplate_Defaults(t *testing.T) {
	tmpl, err := NewTemplate(Config{})
	require.NoError(t, err)

	f, ok := tmpl.MessageFactory().(*message.SOAPFactory)
	require.True(t, ok)
	assert.Equal(t, message.SOAP11, f.Version())
	require.Len(t, tmpl.senders, 1)
	assert.IsType(t, &transport.HTTPSender{}, tmpl.senders[0])
	assert.IsType(t, DefaultFaultResolver{}, tmpl.faultResolver)
	assert.Empty(t, tmpl.Interceptors())
}

func TestNewTemplate_NilEntries(t *testing.T) {
	_, err := NewTemplate(Config{Interceptors: []Interceptor{nil}})
	assert.Error(t, err)

	_, err = NewTemplate(Config{Senders: []transport.Sender{nil}})
	assert.Error(t, err)
}

func TestDoSendAndReceive_CallerOwnsConnection(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}
	tmpl, _ := newTestTemplate(conn)

	mc := NewMessageContext(tmpl.MessageFactory().CreateMessage(), tmpl.MessageFactory())
	mc.SetProperty("tenant", "acme")

	got, err := DoSendAndReceive(context.Background(), tmpl, mc, conn,
		PayloadCallback(element("ping", "")), PayloadExtractor())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Zero(t, conn.closes)
	assert.Equal(t, "http://example.com/ws", mc.Destination())
	assert.Equal(t, OutcomeExtracted, mc.Outcome())
	assert.True(t, mc.HasResponse())
}

func TestPayloadCallbackCopiesPayload(t *testing.T) {
	payload := element("ping", "")
	msg := message.NewSOAPMessage(message.SOAP11)

	require.NoError(t, PayloadCallback(payload).DoWithMessage(context.Background(), msg))
	assert.NotSame(t, payload, msg.Payload())
	assert.Nil(t, payload.Parent())
}

func TestCallbacks(t *testing.T) {
	msg := message.NewSOAPMessage(message.SOAP11)
	cb := Callbacks(
		PayloadCallback(element("ping", "")),
		nil,
		SOAPActionCallback("urn:ping"),
	)

	require.NoError(t, cb.DoWithMessage(context.Background(), msg))
	assert.Equal(t, "ping", msg.Payload().Tag)
	assert.Equal(t, "urn:ping", msg.SOAPAction())
}

func TestNewFaultError(t *testing.T) {
	msg := message.NewSOAPMessage(message.SOAP12)
	msg.AddFault("Receiver", "Database unavailable")

	fe := NewFaultError(msg)
	assert.Equal(t, "env:Receiver", fe.Code)
	assert.Equal(t, "Database unavailable", fe.Reason)
	assert.Equal(t, "SOAP fault env:Receiver: Database unavailable", fe.Error())

	fe = NewFaultError(plainMessage{})
	assert.Equal(t, "SOAP fault: ", fe.Error())
}

type plainMessage struct{}

func (plainMessage) Payload() *etree.Element           { return nil }
func (plainMessage) SetPayload(*etree.Element)         {}
func (plainMessage) WriteTo(w io.Writer) (int64, error) { return 0, nil }

type panickingInterceptor struct {
	InterceptorAdapter
}

func (panickingInterceptor) HandleResponse(ctx context.Context, mc *MessageContext) (bool, error) {
	panic("boom")
}

func TestSendAndReceive_PanicReachesCompletion(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}
	a := newInterceptor("A", rec)
	tmpl, _ := newTestTemplate(conn, a, panickingInterceptor{})

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = tmpl.SendPayloadAndReceive(context.Background(), "", element("ping", ""))
	})

	require.Len(t, a.completionErrs, 1)
	assert.ErrorIs(t, a.completionErrs[0], ErrPanic)
	assert.Contains(t, a.completionErrs[0].Error(), "boom")
	assert.Equal(t, 1, conn.closes)
}

func TestSendAndReceive_ExtractorPanicReachesCompletion(t *testing.T) {
	rec := &recorder{}
	conn := &fakeConnection{uri: "http://example.com/ws", rec: rec, respond: echo}
	a := newInterceptor("A", rec)
	tmpl, _ := newTestTemplate(conn, a)

	extractor := ExtractorFunc[string](func(ctx context.Context, msg message.Message) (string, error) {
		panic(errors.New("bad payload"))
	})

	assert.Panics(t, func() {
		_, _ = SendAndReceive(context.Background(), tmpl, nil, extractor)
	})

	require.Len(t, a.completionErrs, 1)
	assert.ErrorIs(t, a.completionErrs[0], ErrPanic)
}
