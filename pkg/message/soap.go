package message

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// SOAPMessage is a SOAP envelope held as an etree document
type SOAPMessage struct {
	version    Version
	doc        *etree.Document
	envelope   *etree.Element
	header     *etree.Element
	body       *etree.Element
	soapAction string
}

// NewSOAPMessage creates an empty envelope for the given version
func NewSOAPMessage(version Version) *SOAPMessage {
	if version != SOAP12 {
		version = SOAP11
	}

	p := version.prefix()
	doc := etree.NewDocument()
	env := doc.CreateElement(p + ":Envelope")
	env.CreateAttr("xmlns:"+p, version.Namespace())

	return &SOAPMessage{
		version:  version,
		doc:      doc,
		envelope: env,
		header:   env.CreateElement(p + ":Header"),
		body:     env.CreateElement(p + ":Body"),
	}
}

// Version returns the protocol version of the envelope
func (m *SOAPMessage) Version() Version {
	return m.version
}

// Document returns the underlying document
func (m *SOAPMessage) Document() *etree.Document {
	return m.doc
}

// Envelope returns the root Envelope element
func (m *SOAPMessage) Envelope() *etree.Element {
	return m.envelope
}

// Body returns the Body element
func (m *SOAPMessage) Body() *etree.Element {
	return m.body
}

// Header returns the Header element, creating it when the envelope has none
func (m *SOAPMessage) Header() *etree.Element {
	if m.header != nil {
		return m.header
	}

	// Header must precede Body
	m.envelope.RemoveChild(m.body)
	m.header = m.envelope.CreateElement(m.qualify("Header"))
	m.envelope.AddChild(m.body)
	return m.header
}

// SOAPAction returns the SOAPAction transported alongside the message
func (m *SOAPMessage) SOAPAction() string {
	return m.soapAction
}

// SetSOAPAction sets the SOAPAction transported alongside the message
func (m *SOAPMessage) SetSOAPAction(action string) {
	m.soapAction = action
}

// Payload implements Message
func (m *SOAPMessage) Payload() *etree.Element {
	children := m.body.ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// SetPayload implements Message
func (m *SOAPMessage) SetPayload(payload *etree.Element) {
	for _, el := range m.body.ChildElements() {
		m.body.RemoveChild(el)
	}
	if payload != nil {
		m.body.AddChild(payload)
	}
}

// AddHeaderElement appends a namespaced element to the header
func (m *SOAPMessage) AddHeaderElement(namespace, prefix, local string) *etree.Element {
	el := m.Header().CreateElement(prefix + ":" + local)
	el.CreateAttr("xmlns:"+prefix, namespace)
	return el
}

// HeaderElement returns the first header element with the given namespace and local name
func (m *SOAPMessage) HeaderElement(namespace, local string) *etree.Element {
	if m.header == nil {
		return nil
	}
	for _, el := range m.header.ChildElements() {
		if el.Tag == local && el.NamespaceURI() == namespace {
			return el
		}
	}
	return nil
}

// HeaderElements returns all header elements
func (m *SOAPMessage) HeaderElements() []*etree.Element {
	if m.header == nil {
		return nil
	}
	return m.header.ChildElements()
}

// HasFault reports whether the body carries a SOAP Fault
func (m *SOAPMessage) HasFault() bool {
	payload := m.Payload()
	return payload != nil && payload.Tag == "Fault" && payload.NamespaceURI() == m.version.Namespace()
}

// FaultReason returns the fault reason, or "" when the message has no fault
func (m *SOAPMessage) FaultReason() string {
	if f := m.Fault(); f != nil {
		return f.Reason
	}
	return ""
}

// Fault parses the SOAP Fault carried in the body
func (m *SOAPMessage) Fault() *Fault {
	if !m.HasFault() {
		return nil
	}
	el := m.Payload()

	if m.version == SOAP11 {
		return &Fault{
			Code:   childText(el, "faultcode"),
			Reason: childText(el, "faultstring"),
			Actor:  childText(el, "faultactor"),
			Detail: child(el, "detail"),
		}
	}

	f := &Fault{
		Actor:  childText(el, "Role"),
		Detail: child(el, "Detail"),
	}
	if code := child(el, "Code"); code != nil {
		f.Code = childText(code, "Value")
	}
	if reason := child(el, "Reason"); reason != nil {
		f.Reason = childText(reason, "Text")
	}
	return f
}

// AddFault replaces the body content with a SOAP Fault.
// An unqualified code is qualified with the envelope prefix.
func (m *SOAPMessage) AddFault(code, reason string) *etree.Element {
	if code != "" && !strings.Contains(code, ":") {
		code = m.qualify(code)
	}

	fault := etree.NewElement(m.qualify("Fault"))
	if m.version == SOAP11 {
		fault.CreateElement("faultcode").SetText(code)
		fault.CreateElement("faultstring").SetText(reason)
	} else {
		fault.CreateElement(m.qualify("Code")).CreateElement(m.qualify("Value")).SetText(code)
		text := fault.CreateElement(m.qualify("Reason")).CreateElement(m.qualify("Text"))
		text.CreateAttr("xml:lang", "en")
		text.SetText(reason)
	}

	m.SetPayload(fault)
	return fault
}

// qualify prefixes local with the envelope prefix
func (m *SOAPMessage) qualify(local string) string {
	if m.envelope.Space == "" {
		return local
	}
	return m.envelope.Space + ":" + local
}

// WriteTo implements Message
func (m *SOAPMessage) WriteTo(w io.Writer) (int64, error) {
	return m.doc.WriteTo(w)
}

// Bytes serializes the message
func (m *SOAPMessage) Bytes() ([]byte, error) {
	return m.doc.WriteToBytes()
}

func (m *SOAPMessage) String() string {
	s, err := m.doc.WriteToString()
	if err != nil {
		return fmt.Sprintf("<unserializable %s message: %v>", m.version, err)
	}
	return s
}

// SOAPFactory creates SOAP messages of one version
type SOAPFactory struct {
	version Version
}

// NewFactory creates a factory for the given version (SOAP 1.1 when unset)
func NewFactory(version Version) *SOAPFactory {
	if version != SOAP12 {
		version = SOAP11
	}
	return &SOAPFactory{version: version}
}

// Version returns the factory's protocol version
func (f *SOAPFactory) Version() Version {
	return f.version
}

// CreateMessage implements Factory
func (f *SOAPFactory) CreateMessage() Message {
	return NewSOAPMessage(f.version)
}

// ReadMessage implements Factory
func (f *SOAPFactory) ReadMessage(r io.Reader) (Message, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parsing SOAP message: %w", err)
	}

	env := doc.Root()
	if env == nil || env.Tag != "Envelope" {
		return nil, fmt.Errorf("%w: root element is not Envelope", ErrInvalidEnvelope)
	}

	ns := env.NamespaceURI()
	version, ok := versionForNamespace(ns)
	if !ok {
		return nil, fmt.Errorf("%w: unknown envelope namespace %q", ErrInvalidEnvelope, ns)
	}
	if version != f.version {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrVersionMismatch, f.version, version)
	}

	msg := &SOAPMessage{version: version, doc: doc, envelope: env}
	for _, el := range env.ChildElements() {
		if el.NamespaceURI() != ns {
			continue
		}
		switch el.Tag {
		case "Header":
			msg.header = el
		case "Body":
			msg.body = el
		}
	}
	if msg.body == nil {
		return nil, fmt.Errorf("%w: missing Body", ErrInvalidEnvelope)
	}

	return msg, nil
}

// ParseElement parses a standalone XML element
func ParseElement(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(bytes.TrimSpace(data)); err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parsing XML: no root element")
	}
	doc.RemoveChild(root)
	return root, nil
}

// ElementBytes serializes a copy of el as a standalone document
func ElementBytes(el *etree.Element) ([]byte, error) {
	if el == nil {
		return nil, nil
	}
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	return doc.WriteToBytes()
}

func child(el *etree.Element, local string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func childText(el *etree.Element, local string) string {
	if c := child(el, local); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}
