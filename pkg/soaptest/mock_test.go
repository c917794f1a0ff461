package soaptest

import (
	"context"
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-soapws/pkg/client"
	"github.com/sirosfoundation/go-soapws/pkg/message"
	"github.com/sirosfoundation/go-soapws/pkg/transport"
)

func newTemplate(t *testing.T, sender *MockSender, factory message.Factory) *client.Template {
	t.Helper()
	tmpl, err := client.NewTemplate(client.Config{
		MessageFactory: factory,
		Senders:        []transport.Sender{sender},
		DefaultURI:     "http://orders.test/ws",
	})
	require.NoError(t, err)
	return tmpl
}

func ping() *etree.Element {
	el := etree.NewElement("getOrder")
	el.CreateAttr("xmlns", "urn:orders")
	el.CreateElement("id").SetText("17")
	return el
}

func TestMockSender_Payload(t *testing.T) {
	sender := NewMockSender()
	sender.Expect(PayloadContains("<id>17</id>"), PayloadRoot("getOrder"), ConnectionTo("http://orders.test/ws")).
		AndRespond(WithPayloadString(`<order xmlns="urn:orders"><id>17</id></order>`))
	tmpl := newTemplate(t, sender, nil)

	resp, err := tmpl.SendPayloadAndReceive(context.Background(), "", ping())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "order", resp.Tag)
	assert.Equal(t, "17", resp.SelectElement("id").Text())

	require.NoError(t, sender.Verify())
	conns := sender.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, 1, conns[0].Sends())
	assert.Equal(t, 1, conns[0].Receives())
	assert.True(t, conns[0].Closed())
	assert.Equal(t, "getOrder", conns[0].Request().Payload().Tag)
}

func TestMockSender_Echo(t *testing.T) {
	sender := NewMockSender()
	sender.Expect().AndRespond(WithEcho())
	tmpl := newTemplate(t, sender, message.NewFactory(message.SOAP12))

	resp, err := tmpl.SendPayloadAndReceive(context.Background(), "", ping())
	require.NoError(t, err)
	assert.Equal(t, "getOrder", resp.Tag)
	require.NoError(t, sender.Verify())
}

func TestMockSender_SOAPAction(t *testing.T) {
	sender := NewMockSender()
	sender.Expect(SOAPActionEquals("urn:getOrder")).AndRespond(WithNoResponse())
	tmpl := newTemplate(t, sender, nil)

	err := tmpl.Send(context.Background(), "", client.Callbacks(
		client.PayloadCallback(ping()),
		client.SOAPActionCallback("urn:getOrder"),
	))
	require.NoError(t, err)
	require.NoError(t, sender.Verify())
}

func TestMockSender_Fault(t *testing.T) {
	tests := []struct {
		name     string
		factory  message.Factory
		creator  ResponseCreator
		wantCode string
	}{
		{name: "explicit", factory: message.NewFactory(message.SOAP11), creator: WithFault("Client", "bad id"), wantCode: "soapenv:Client"},
		{name: "server 1.1", factory: message.NewFactory(message.SOAP11), creator: WithServerFault("bad id"), wantCode: "soapenv:Server"},
		{name: "client 1.2", factory: message.NewFactory(message.SOAP12), creator: WithClientFault("bad id"), wantCode: "env:Sender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := NewMockSender()
			sender.Expect().AndRespond(tt.creator)
			tmpl := newTemplate(t, sender, tt.factory)

			_, err := tmpl.SendPayloadAndReceive(context.Background(), "", ping())

			var fe *client.FaultError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantCode, fe.Code)
			assert.Equal(t, "bad id", fe.Reason)
			require.NoError(t, sender.Verify())
		})
	}
}

func TestMockSender_Error(t *testing.T) {
	sender := NewMockSender()
	sender.Expect().AndRespond(WithError("Service Unavailable"))
	tmpl := newTemplate(t, sender, nil)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", ping())

	var te *client.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Service Unavailable", te.Message)
	assert.Zero(t, sender.Connections()[0].Receives())
}

func TestMockSender_SendAndReceiveErrors(t *testing.T) {
	sendErr := errors.New("broken pipe")
	recvErr := errors.New("read timeout")

	sender := NewMockSender()
	sender.Expect().AndRespond(WithSendError(sendErr))
	sender.Expect().AndRespond(WithReceiveError(recvErr))
	tmpl := newTemplate(t, sender, nil)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", ping())
	assert.ErrorIs(t, err, sendErr)

	_, err = tmpl.SendPayloadAndReceive(context.Background(), "", ping())
	assert.ErrorIs(t, err, recvErr)

	require.NoError(t, sender.Verify())
}

func TestMockSender_NoResponse(t *testing.T) {
	sender := NewMockSender()
	sender.Expect()
	tmpl := newTemplate(t, sender, nil)

	resp, err := tmpl.SendPayloadAndReceive(context.Background(), "", ping())
	require.NoError(t, err)
	assert.Nil(t, resp)
	require.NoError(t, sender.Verify())
}

func TestMockSender_Verify(t *testing.T) {
	sender := NewMockSender()
	sender.Expect(PayloadRoot("other"))
	sender.Expect()
	tmpl := newTemplate(t, sender, nil)

	_, err := tmpl.SendPayloadAndReceive(context.Background(), "", ping())
	assert.ErrorIs(t, err, ErrRequestMismatch)

	verr := sender.Verify()
	require.Error(t, verr)
	assert.ErrorIs(t, verr, ErrRequestMismatch)
	assert.Contains(t, verr.Error(), "1 expected request(s) not sent")

	sender.Reset()
	_, err = tmpl.SendPayloadAndReceive(context.Background(), "", ping())
	assert.ErrorIs(t, err, ErrUnexpectedRequest)
	assert.ErrorIs(t, sender.Verify(), ErrUnexpectedRequest)
}

func TestMockConnection_ReceiveBeforeSend(t *testing.T) {
	sender := NewMockSender()
	conn, err := sender.CreateConnection(context.Background(), "http://orders.test/ws")
	require.NoError(t, err)

	_, err = conn.Receive(context.Background(), message.NewFactory(message.SOAP11))
	assert.ErrorIs(t, err, transport.ErrNotSent)
	assert.False(t, conn.HasError())
	assert.Empty(t, conn.ErrorMessage())

	assert.Error(t, sender.Verify())
	require.NoError(t, conn.Close())
	assert.NoError(t, sender.Verify())
}

func TestWithError_Empty(t *testing.T) {
	_, err := WithError(" ")(message.NewSOAPMessage(message.SOAP11))
	assert.Error(t, err)
}

func TestHeaderExists(t *testing.T) {
	msg := message.NewSOAPMessage(message.SOAP11)
	m := HeaderExists(message.NsWSA, "MessageID")
	assert.Error(t, m.Match("", msg))

	msg.AddHeaderElement(message.NsWSA, "wsa", "MessageID").SetText("urn:uuid:1")
	assert.NoError(t, m.Match("", msg))
}
