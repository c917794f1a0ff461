package interceptor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sirosfoundation/go-soapws/pkg/client"
	"github.com/sirosfoundation/go-soapws/pkg/journal"
	"github.com/sirosfoundation/go-soapws/pkg/message"
)

const propertyJournalStart = "journal.start"

// JournalConfig configures the Journal interceptor
type JournalConfig struct {
	// RecordMessages stores the serialized request and response
	RecordMessages bool
	// Logger receives store failures (default slog.Default())
	Logger *slog.Logger
}

// Journal writes one journal entry per exchange
type Journal struct {
	client.InterceptorAdapter
	store          journal.Store
	recordMessages bool
	logger         *slog.Logger
	now            func() time.Time
}

// NewJournal creates a Journal interceptor. A nil config uses defaults.
func NewJournal(store journal.Store, config *JournalConfig) *Journal {
	if config == nil {
		config = &JournalConfig{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		store:          store,
		recordMessages: config.RecordMessages,
		logger:         logger,
		now:            time.Now,
	}
}

// HandleRequest implements client.Interceptor
func (j *Journal) HandleRequest(ctx context.Context, mc *client.MessageContext) (bool, error) {
	mc.SetProperty(propertyJournalStart, j.now())
	return true, nil
}

// AfterCompletion implements client.Interceptor. Store failures are logged
// and do not affect the exchange.
func (j *Journal) AfterCompletion(ctx context.Context, mc *client.MessageContext, err error) {
	completed := j.now()
	entry := &journal.Entry{
		ID:          journal.NewID(),
		Destination: mc.Destination(),
		Outcome:     mc.Outcome().String(),
		CompletedAt: completed,
	}

	if start, ok := mc.Property(propertyJournalStart).(time.Time); ok {
		entry.StartedAt = start
		entry.Duration = completed.Sub(start)
	}
	if id, ok := mc.Property(PropertyMessageID).(string); ok {
		entry.MessageID = id
	}
	if rel, ok := mc.Property(PropertyRelatesTo).(string); ok {
		entry.RelatesTo = rel
	}
	if req, ok := mc.Request().(*message.SOAPMessage); ok {
		entry.Action = req.SOAPAction()
	}

	if err != nil {
		entry.Error = err.Error()
		var fe *client.FaultError
		if errors.As(err, &fe) {
			entry.FaultCode = fe.Code
			entry.FaultReason = fe.Reason
		}
	}

	if j.recordMessages {
		entry.Request = serialize(mc.Request())
		if mc.HasResponse() {
			entry.Response = serialize(mc.Response())
		}
	}

	if serr := j.store.Record(ctx, entry); serr != nil {
		j.logger.Error("failed to record journal entry", "uri", entry.Destination, "error", serr)
	}
}

func serialize(msg message.Message) []byte {
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}
