// Package config handles configuration loading for the soapcall client.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax). This allows credentials such
// as the journal database URI to be injected at runtime.
//
// # Configuration Sections
//
//   - client: SOAP version, default URI, error and fault checks
//   - http: timeouts, TLS and compression for the HTTP sender
//   - destination: DNS U-NAPTR destination lookup and its cache
//   - addressing: WS-Addressing headers
//   - journal: exchange journal (memory or mongodb)
//   - logging: level, format and payload logging
//
// # Example Configuration
//
//	client:
//	  soapVersion: "1.2"
//	  defaultUri: https://ws.example.com/orders
//
//	http:
//	  readTimeout: 30s
//	  compressRequests: true
//
//	destination:
//	  naptr:
//	    domain: orders.example.com
//	    service: SOAP:HTTP
//	  cacheTTL: 10m
//
//	journal:
//	  type: mongodb
//	  mongodb:
//	    uri: ${MONGODB_URI}
//	    database: soapws
//
// See [Load] for loading configuration from a file.
package config

import (
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-soapws/pkg/message"
	"github.com/sirosfoundation/go-soapws/pkg/transport"
)

// Journal types
const (
	JournalNone    = "none"
	JournalMemory  = "memory"
	JournalMongoDB = "mongodb"
)

// Config is the root configuration structure
type Config struct {
	Client      ClientConfig      `yaml:"client"`
	HTTP        HTTPConfig        `yaml:"http"`
	Destination DestinationConfig `yaml:"destination"`
	Addressing  AddressingConfig  `yaml:"addressing"`
	Journal     JournalConfig     `yaml:"journal"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ClientConfig holds exchange settings
type ClientConfig struct {
	SOAPVersion    string `yaml:"soapVersion"`
	DefaultURI     string `yaml:"defaultUri"`
	SkipErrorCheck bool   `yaml:"skipErrorCheck"`
	SkipFaultCheck bool   `yaml:"skipFaultCheck"`
	// SuppressFaults resolves faults without returning an error
	SuppressFaults bool `yaml:"suppressFaults"`
}

// HTTPConfig holds HTTP sender settings
type HTTPConfig struct {
	ConnectionTimeout  time.Duration `yaml:"connectionTimeout"`
	ReadTimeout        time.Duration `yaml:"readTimeout"`
	IdleConnTimeout    time.Duration `yaml:"idleConnTimeout"`
	AcceptGzip         *bool         `yaml:"acceptGzip"`
	CompressRequests   bool          `yaml:"compressRequests"`
	UserAgent          string        `yaml:"userAgent"`
	MinTLSVersion      string        `yaml:"minTlsVersion"`
	CAFile             string        `yaml:"caFile"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify"`
	// MaxResponseSize bounds response bodies in bytes; negative disables the limit
	MaxResponseSize int64 `yaml:"maxResponseSize"`
}

// DestinationConfig holds destination lookup settings
type DestinationConfig struct {
	NAPTR struct {
		Domain    string `yaml:"domain"`
		Service   string `yaml:"service"`
		DNSServer string `yaml:"dnsServer"`
	} `yaml:"naptr"`
	// CacheTTL caches the looked up destination; zero disables caching
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AddressingConfig holds WS-Addressing settings
type AddressingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Action  string `yaml:"action"`
	ReplyTo string `yaml:"replyTo"`
	Strict  bool   `yaml:"strict"`
}

// JournalConfig holds exchange journal settings
type JournalConfig struct {
	Type           string        `yaml:"type"`
	RecordMessages bool          `yaml:"recordMessages"`
	MongoDB        MongoDBConfig `yaml:"mongodb"`
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	URI        string        `yaml:"uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	BucketName string        `yaml:"bucketName"`
	Retention  time.Duration `yaml:"retention"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Payloads bool   `yaml:"payloads"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse reads configuration from YAML data
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Client.SOAPVersion == "" {
		c.Client.SOAPVersion = "1.1"
	}
	if c.HTTP.ConnectionTimeout == 0 {
		c.HTTP.ConnectionTimeout = 60 * time.Second
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 60 * time.Second
	}
	if c.HTTP.IdleConnTimeout == 0 {
		c.HTTP.IdleConnTimeout = 90 * time.Second
	}
	if c.HTTP.AcceptGzip == nil {
		accept := true
		c.HTTP.AcceptGzip = &accept
	}
	if c.HTTP.MaxResponseSize == 0 {
		c.HTTP.MaxResponseSize = transport.DefaultMaxResponseSize
	}
	if c.HTTP.MinTLSVersion == "" {
		c.HTTP.MinTLSVersion = "1.2"
	}
	if c.Destination.NAPTR.Service == "" {
		c.Destination.NAPTR.Service = "SOAP:HTTP"
	}
	if c.Journal.Type == "" {
		c.Journal.Type = JournalNone
	}
	if c.Journal.MongoDB.Database == "" {
		c.Journal.MongoDB.Database = "soapws"
	}
	if c.Journal.MongoDB.Collection == "" {
		c.Journal.MongoDB.Collection = "journal"
	}
	if c.Journal.MongoDB.BucketName == "" {
		c.Journal.MongoDB.BucketName = "journal_messages"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	var err error

	if _, verr := message.ParseVersion(c.Client.SOAPVersion); verr != nil {
		err = multierr.Append(err, fmt.Errorf("client.soapVersion: %w", verr))
	}

	switch c.HTTP.MinTLSVersion {
	case "1.2", "1.3":
	default:
		err = multierr.Append(err, fmt.Errorf("http.minTlsVersion must be '1.2' or '1.3', got '%s'", c.HTTP.MinTLSVersion))
	}

	if c.Destination.CacheTTL < 0 {
		err = multierr.Append(err, fmt.Errorf("destination.cacheTTL must not be negative"))
	}

	switch c.Journal.Type {
	case JournalNone, JournalMemory:
	case JournalMongoDB:
		if c.Journal.MongoDB.URI == "" {
			err = multierr.Append(err, fmt.Errorf("journal.mongodb.uri is required when type is 'mongodb'"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("journal.type must be 'none', 'memory', or 'mongodb', got '%s'", c.Journal.Type))
	}

	if _, lerr := c.Logging.SlogLevel(); lerr != nil {
		err = multierr.Append(err, lerr)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.format must be 'text' or 'json', got '%s'", c.Logging.Format))
	}

	return err
}

// Version returns the configured SOAP version
func (c *ClientConfig) Version() message.Version {
	v, err := message.ParseVersion(c.SOAPVersion)
	if err != nil {
		return message.SOAP11
	}
	return v
}

// SlogLevel parses the configured level
func (c *LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// SenderConfig converts the HTTP section into a transport configuration.
// The CA file, when set, replaces the system roots.
func (c *HTTPConfig) SenderConfig() (*transport.HTTPConfig, error) {
	cfg := transport.DefaultHTTPConfig()
	cfg.ConnectionTimeout = c.ConnectionTimeout
	cfg.ReadTimeout = c.ReadTimeout
	cfg.IdleConnTimeout = c.IdleConnTimeout
	cfg.CompressRequests = c.CompressRequests
	cfg.InsecureSkipVerify = c.InsecureSkipVerify
	cfg.MaxResponseSize = c.MaxResponseSize
	if c.AcceptGzip != nil {
		cfg.AcceptGzipEncoding = *c.AcceptGzip
	}
	if c.UserAgent != "" {
		cfg.UserAgent = c.UserAgent
	}
	if c.MinTLSVersion == "1.3" {
		cfg.MinTLSVersion = transport.TLS13
	}

	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", c.CAFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
