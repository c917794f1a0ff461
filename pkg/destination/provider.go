package destination

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoDestination is returned when a provider has no destination to offer
var ErrNoDestination = errors.New("no destination available")

// Provider returns the destination URI for an exchange
type Provider interface {
	Destination(ctx context.Context) (string, error)
}

// Static is a Provider with a fixed URI
type Static string

// Destination implements Provider
func (s Static) Destination(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoDestination
	}
	return string(s), nil
}

// ProviderFunc adapts a function to Provider
type ProviderFunc func(ctx context.Context) (string, error)

// Destination implements Provider
func (f ProviderFunc) Destination(ctx context.Context) (string, error) {
	return f(ctx)
}

// CachingProvider caches the answer of another provider for a fixed TTL.
// Failed lookups are not cached.
type CachingProvider struct {
	mu        sync.RWMutex
	provider  Provider
	ttl       time.Duration
	uri       string
	expiresAt time.Time
	now       func() time.Time
}

// NewCachingProvider wraps provider with a cache
func NewCachingProvider(provider Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Destination implements Provider
func (p *CachingProvider) Destination(ctx context.Context) (string, error) {
	p.mu.RLock()
	uri, expiresAt := p.uri, p.expiresAt
	p.mu.RUnlock()

	if uri != "" && p.now().Before(expiresAt) {
		return uri, nil
	}

	uri, err := p.provider.Destination(ctx)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.uri = uri
	p.expiresAt = p.now().Add(p.ttl)
	p.mu.Unlock()

	return uri, nil
}

// Invalidate drops the cached destination
func (p *CachingProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uri = ""
	p.expiresAt = time.Time{}
}
