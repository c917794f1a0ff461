package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirosfoundation/go-soapws/pkg/message"
)

// TLS version constants
const (
	TLS12 = tls.VersionTLS12
	TLS13 = tls.VersionTLS13
)

// DefaultUserAgent is sent when HTTPConfig.UserAgent is empty
const DefaultUserAgent = "go-soapws/1.0"

// DefaultMaxResponseSize bounds response bodies after decompression
const DefaultMaxResponseSize = 10 << 20

// Recommended TLS 1.2 cipher suites
var RecommendedTLS12CipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// HTTPConfig contains HTTP sender configuration
type HTTPConfig struct {
	MinTLSVersion      uint16
	MaxTLSVersion      uint16
	CipherSuites       []uint16
	Certificates       []tls.Certificate
	RootCAs            *x509.CertPool
	InsecureSkipVerify bool

	// ConnectionTimeout bounds connection establishment
	ConnectionTimeout time.Duration
	// ReadTimeout bounds the wait for response headers
	ReadTimeout     time.Duration
	IdleConnTimeout time.Duration

	// AcceptGzipEncoding advertises and decodes gzip responses
	AcceptGzipEncoding bool
	// CompressRequests gzips request bodies
	CompressRequests bool

	// MaxResponseSize bounds the decoded response body in bytes; zero or
	// negative means no limit
	MaxResponseSize int64

	UserAgent string
}

// DefaultHTTPConfig returns a default HTTP configuration
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		MinTLSVersion:      TLS12,
		MaxTLSVersion:      TLS13,
		CipherSuites:       RecommendedTLS12CipherSuites,
		ConnectionTimeout:  60 * time.Second,
		ReadTimeout:        60 * time.Second,
		IdleConnTimeout:    90 * time.Second,
		AcceptGzipEncoding: true,
		MaxResponseSize:    DefaultMaxResponseSize,
		UserAgent:          DefaultUserAgent,
	}
}

// HTTPSender creates HTTP connections for http and https URIs
type HTTPSender struct {
	client     *http.Client
	config     *HTTPConfig
	compressor *Compressor
}

// NewHTTPSender creates a new HTTP sender
func NewHTTPSender(config *HTTPConfig) *HTTPSender {
	if config == nil {
		config = DefaultHTTPConfig()
	}

	tlsConfig := &tls.Config{
		MinVersion:         config.MinTLSVersion,
		MaxVersion:         config.MaxTLSVersion,
		CipherSuites:       config.CipherSuites,
		Certificates:       config.Certificates,
		RootCAs:            config.RootCAs,
		InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // opt-in for test endpoints
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: config.ConnectionTimeout}).DialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   config.ConnectionTimeout,
		ResponseHeaderTimeout: config.ReadTimeout,
		IdleConnTimeout:       config.IdleConnTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
	}

	return NewHTTPSenderWithClient(&http.Client{Transport: transport}, config)
}

// NewHTTPSenderWithClient creates a sender around an existing http.Client
func NewHTTPSenderWithClient(client *http.Client, config *HTTPConfig) *HTTPSender {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSender{
		client:     client,
		config:     config,
		compressor: NewCompressor(),
	}
}

// Supports implements Sender
func (s *HTTPSender) Supports(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// CreateConnection implements Sender
func (s *HTTPSender) CreateConnection(ctx context.Context, uri string) (Connection, error) {
	if !s.Supports(uri) {
		return nil, fmt.Errorf("%w: %s is not an HTTP URL", ErrUnsupportedURI, uri)
	}
	return &HTTPConnection{uri: uri, sender: s}, nil
}

// HTTPConnection is a single HTTP POST exchange
type HTTPConnection struct {
	uri    string
	sender *HTTPSender
	resp   *http.Response
}

// URI implements Connection
func (c *HTTPConnection) URI() string {
	return c.uri
}

// Send implements Connection
func (c *HTTPConnection) Send(ctx context.Context, msg message.Message) error {
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	cfg := c.sender.config
	body := buf.Bytes()
	if cfg.CompressRequests {
		compressed, err := c.sender.compressor.Compress(body)
		if err != nil {
			return err
		}
		body = compressed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	contentType, soapAction := contentHeaders(msg)
	req.Header.Set("Content-Type", contentType)
	if soapAction != "" {
		req.Header.Set("SOAPAction", soapAction)
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	if cfg.AcceptGzipEncoding {
		req.Header.Set("Accept-Encoding", ContentEncodingGzip)
	}
	if cfg.CompressRequests {
		req.Header.Set("Content-Encoding", ContentEncodingGzip)
	}

	resp, err := c.sender.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	c.resp = resp
	return nil
}

// Receive implements Connection
func (c *HTTPConnection) Receive(ctx context.Context, factory message.Factory) (message.Message, error) {
	if c.resp == nil {
		return nil, ErrNotSent
	}
	if c.resp.StatusCode == http.StatusAccepted || c.resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	body := io.Reader(c.resp.Body)
	if isGzipEncoded(c.resp.Header.Get("Content-Encoding")) {
		zr, err := c.sender.compressor.NewReader(body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		body = zr
	}

	data, err := readLimited(body, c.sender.config.MaxResponseSize)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	return factory.ReadMessage(bytes.NewReader(data))
}

// HasError implements Connection
func (c *HTTPConnection) HasError() bool {
	if c.resp == nil {
		return false
	}
	return c.resp.StatusCode/100 != 2 && !c.HasFault()
}

// HasFault implements FaultAwareConnection
func (c *HTTPConnection) HasFault() bool {
	if c.resp == nil {
		return false
	}
	return c.resp.StatusCode == http.StatusInternalServerError && isXMLContentType(c.resp.Header.Get("Content-Type"))
}

// ErrorMessage implements Connection
func (c *HTTPConnection) ErrorMessage() string {
	if c.resp == nil {
		return ""
	}
	reason := strings.TrimSpace(strings.TrimPrefix(c.resp.Status, strconv.Itoa(c.resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(c.resp.StatusCode)
	}
	return reason
}

// StatusCode returns the HTTP status of the response, or 0 before Send
func (c *HTTPConnection) StatusCode() int {
	if c.resp == nil {
		return 0
	}
	return c.resp.StatusCode
}

// Close implements Connection
func (c *HTTPConnection) Close() error {
	if c.resp == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, c.resp.Body)
	err := c.resp.Body.Close()
	c.resp = nil
	return err
}

// readLimited reads r fully, failing once more than limit bytes arrive
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, limit)
	}
	return data, nil
}

// contentHeaders returns the Content-Type and SOAPAction header values for msg
func contentHeaders(msg message.Message) (contentType, soapAction string) {
	version := message.SOAP11
	action := ""
	if sm, ok := msg.(*message.SOAPMessage); ok {
		version = sm.Version()
		action = sm.SOAPAction()
	}

	if version == message.SOAP12 {
		contentType = version.ContentType() + "; charset=utf-8"
		if action != "" {
			contentType += fmt.Sprintf("; action=%q", action)
		}
		return contentType, ""
	}

	return version.ContentType() + "; charset=utf-8", strconv.Quote(action)
}

func isXMLContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case message.ContentTypeSOAP11, message.ContentTypeSOAP12, "application/xml":
		return true
	}
	return strings.HasSuffix(mediaType, "+xml")
}
