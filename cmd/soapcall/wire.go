package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sirosfoundation/go-soapws/internal/config"
	"github.com/sirosfoundation/go-soapws/pkg/client"
	"github.com/sirosfoundation/go-soapws/pkg/destination"
	"github.com/sirosfoundation/go-soapws/pkg/interceptor"
	"github.com/sirosfoundation/go-soapws/pkg/journal"
	"github.com/sirosfoundation/go-soapws/pkg/journal/mongodb"
	"github.com/sirosfoundation/go-soapws/pkg/message"
	"github.com/sirosfoundation/go-soapws/pkg/transport"
)

// environment holds everything built from a configuration
type environment struct {
	template *client.Template
	provider destination.Provider
	store    journal.Store
	logger   *slog.Logger
	closers  []func(context.Context) error
}

func (e *environment) Close(ctx context.Context) {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			e.logger.Warn("failed to close resource", "error", err)
		}
	}
}

func newLogger(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// newProvider returns nil when no NAPTR domain is configured
func newProvider(cfg config.DestinationConfig) destination.Provider {
	if cfg.NAPTR.Domain == "" {
		return nil
	}
	var provider destination.Provider = destination.NewNAPTRProvider(destination.NAPTRConfig{
		Domain:    cfg.NAPTR.Domain,
		Service:   cfg.NAPTR.Service,
		DNSServer: cfg.NAPTR.DNSServer,
	})
	if cfg.CacheTTL > 0 {
		provider = destination.NewCachingProvider(provider, cfg.CacheTTL)
	}
	return provider
}

func newJournalStore(ctx context.Context, cfg config.JournalConfig) (journal.Store, func(context.Context) error, error) {
	switch cfg.Type {
	case config.JournalMemory:
		return journal.NewMemoryStore(), nil, nil
	case config.JournalMongoDB:
		store, err := mongodb.NewStore(ctx, &mongodb.Config{
			URI:          cfg.MongoDB.URI,
			Database:     cfg.MongoDB.Database,
			Collection:   cfg.MongoDB.Collection,
			GridFSBucket: cfg.MongoDB.BucketName,
			Retention:    cfg.MongoDB.Retention,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open journal: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, nil
	}
}

// newEnvironment wires a Template from cfg. The logger is used both for the
// engine and for the logging interceptor.
func newEnvironment(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*environment, error) {
	env := &environment{logger: logger}

	senderConfig, err := cfg.HTTP.SenderConfig()
	if err != nil {
		return nil, err
	}

	interceptors := []client.Interceptor{
		interceptor.NewLogging(interceptor.LoggingConfig{
			Logger:      logger,
			Level:       slog.LevelDebug,
			LogPayloads: cfg.Logging.Payloads,
		}),
	}
	if cfg.Addressing.Enabled {
		interceptors = append(interceptors, interceptor.NewAddressing(interceptor.AddressingConfig{
			Action:  cfg.Addressing.Action,
			ReplyTo: cfg.Addressing.ReplyTo,
			Strict:  cfg.Addressing.Strict,
		}))
	}

	store, closer, err := newJournalStore(ctx, cfg.Journal)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		env.closers = append(env.closers, closer)
	}
	if store != nil {
		env.store = store
		interceptors = append(interceptors, interceptor.NewJournal(store, &interceptor.JournalConfig{
			RecordMessages: cfg.Journal.RecordMessages,
			Logger:         logger,
		}))
	}

	var resolver client.FaultResolver
	if cfg.Client.SuppressFaults {
		resolver = client.SuppressFaults
	}

	env.provider = newProvider(cfg.Destination)
	env.template, err = client.NewTemplate(client.Config{
		MessageFactory:      message.NewFactory(cfg.Client.Version()),
		Senders:             []transport.Sender{transport.NewHTTPSender(senderConfig)},
		Interceptors:        interceptors,
		FaultResolver:       resolver,
		DestinationProvider: env.provider,
		DefaultURI:          cfg.Client.DefaultURI,
		SkipErrorCheck:      cfg.Client.SkipErrorCheck,
		SkipFaultCheck:      cfg.Client.SkipFaultCheck,
		Logger:              logger,
	})
	if err != nil {
		env.Close(ctx)
		return nil, err
	}

	return env, nil
}
