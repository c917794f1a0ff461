package destination

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/miekg/dns"
)

var (
	// ErrNoRecordsFound is returned when the domain has no NAPTR records
	ErrNoRecordsFound = fmt.Errorf("%w: no NAPTR records found", ErrNoDestination)
	// ErrServiceNotFound is returned when no U-NAPTR record matches the service
	ErrServiceNotFound = fmt.Errorf("%w: no matching U-NAPTR record", ErrNoDestination)
	// ErrInvalidNAPTRRecord is returned when a record's regexp cannot yield a URI
	ErrInvalidNAPTRRecord = errors.New("invalid NAPTR record")
)

// NAPTRConfig configures a NAPTRProvider
type NAPTRConfig struct {
	// Domain is the name queried for NAPTR records
	Domain string
	// Service selects records by service field (case-insensitive).
	// Empty accepts any service.
	Service string
	// DNSServer is "host:port"; the first resolv.conf server is used when empty
	DNSServer string
}

// NAPTRProvider resolves the destination from DNS U-NAPTR records
type NAPTRProvider struct {
	config    NAPTRConfig
	dnsClient *dns.Client
}

// NewNAPTRProvider creates a NAPTR-backed provider
func NewNAPTRProvider(config NAPTRConfig) *NAPTRProvider {
	return &NAPTRProvider{
		config:    config,
		dnsClient: new(dns.Client),
	}
}

// Destination implements Provider
func (p *NAPTRProvider) Destination(ctx context.Context) (string, error) {
	if p.config.Domain == "" {
		return "", fmt.Errorf("%w: no NAPTR domain configured", ErrNoDestination)
	}

	records, err := p.lookup(ctx, p.config.Domain)
	if err != nil {
		return "", err
	}

	best, err := selectRecord(records, p.config.Service)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, p.config.Domain)
	}

	return extractURI(best.Regexp)
}

func (p *NAPTRProvider) lookup(ctx context.Context, domain string) ([]*dns.NAPTR, error) {
	server := p.config.DNSServer
	if server == "" {
		config, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			return nil, fmt.Errorf("failed to read DNS config: %w", err)
		}
		if len(config.Servers) == 0 {
			return nil, errors.New("no DNS servers configured")
		}
		server = config.Servers[0] + ":" + config.Port
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeNAPTR)
	msg.RecursionDesired = true

	resp, _, err := p.dnsClient.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, fmt.Errorf("DNS lookup failed for %s: %w", domain, err)
	}

	if resp.Rcode == dns.RcodeNameError {
		return nil, fmt.Errorf("%w: %s", ErrNoRecordsFound, domain)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("DNS lookup failed for %s: rcode=%s", domain, dns.RcodeToString[resp.Rcode])
	}

	var records []*dns.NAPTR
	for _, rr := range resp.Answer {
		if naptr, ok := rr.(*dns.NAPTR); ok {
			records = append(records, naptr)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecordsFound, domain)
	}

	return records, nil
}

// selectRecord picks the terminal ("U") record with the lowest order, then
// the lowest preference, among those matching service
func selectRecord(records []*dns.NAPTR, service string) (*dns.NAPTR, error) {
	var best *dns.NAPTR

	for _, record := range records {
		if !strings.EqualFold(record.Flags, "U") {
			continue
		}
		if service != "" && !strings.EqualFold(record.Service, service) {
			continue
		}

		if best == nil ||
			record.Order < best.Order ||
			(record.Order == best.Order && record.Preference < best.Preference) {
			best = record
		}
	}

	if best == nil {
		return nil, ErrServiceNotFound
	}
	return best, nil
}

// extractURI returns the replacement of a "!pattern!replacement!" regexp field
func extractURI(regexpField string) (string, error) {
	if len(regexpField) < 3 {
		return "", fmt.Errorf("%w: empty regexp", ErrInvalidNAPTRRecord)
	}

	// The first character is the delimiter
	delim := regexpField[:1]
	parts := strings.Split(regexpField, delim)
	if len(parts) < 4 {
		return "", fmt.Errorf("%w: invalid regexp format: %s", ErrInvalidNAPTRRecord, regexpField)
	}

	replacement := parts[2]
	if replacement == "" {
		return "", fmt.Errorf("%w: empty URI in regexp: %s", ErrInvalidNAPTRRecord, regexpField)
	}

	u, err := url.Parse(replacement)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNAPTRRecord, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("%w: unsupported URI scheme %q", ErrInvalidNAPTRRecord, u.Scheme)
	}

	return replacement, nil
}
