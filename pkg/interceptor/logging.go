package interceptor

import (
	"context"
	"log/slog"
	"time"

	"github.com/sirosfoundation/go-soapws/pkg/client"
	"github.com/sirosfoundation/go-soapws/pkg/message"
)

const propertyLoggingStart = "logging.start"

// LoggingConfig configures the Logging interceptor
type LoggingConfig struct {
	// Logger defaults to slog.Default()
	Logger *slog.Logger
	// Level of the request and response records (zero value is Info)
	Level slog.Level
	// LogPayloads adds the serialized payloads to the records
	LogPayloads bool
}

// Logging logs each phase of an exchange
type Logging struct {
	logger      *slog.Logger
	level       slog.Level
	logPayloads bool
}

// NewLogging creates a Logging interceptor
func NewLogging(config LoggingConfig) *Logging {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{
		logger:      logger,
		level:       config.Level,
		logPayloads: config.LogPayloads,
	}
}

// HandleRequest implements client.Interceptor
func (l *Logging) HandleRequest(ctx context.Context, mc *client.MessageContext) (bool, error) {
	mc.SetProperty(propertyLoggingStart, time.Now())
	l.logger.Log(ctx, l.level, "sending request", l.attrs(mc.Destination(), mc.Request())...)
	return true, nil
}

// HandleResponse implements client.Interceptor
func (l *Logging) HandleResponse(ctx context.Context, mc *client.MessageContext) (bool, error) {
	if !mc.HasResponse() {
		l.logger.Log(ctx, l.level, "no response", "uri", mc.Destination())
		return true, nil
	}
	l.logger.Log(ctx, l.level, "received response", l.attrs(mc.Destination(), mc.Response())...)
	return true, nil
}

// HandleFault implements client.Interceptor
func (l *Logging) HandleFault(ctx context.Context, mc *client.MessageContext) (bool, error) {
	args := l.attrs(mc.Destination(), mc.Response())
	if fm, ok := mc.Response().(message.FaultAwareMessage); ok {
		args = append(args, "reason", fm.FaultReason())
	}
	l.logger.WarnContext(ctx, "received fault", args...)
	return true, nil
}

// AfterCompletion implements client.Interceptor
func (l *Logging) AfterCompletion(ctx context.Context, mc *client.MessageContext, err error) {
	args := []any{"uri", mc.Destination(), "outcome", mc.Outcome().String()}
	if start, ok := mc.Property(propertyLoggingStart).(time.Time); ok {
		args = append(args, "duration", time.Since(start))
	}

	if err != nil {
		l.logger.ErrorContext(ctx, "exchange failed", append(args, "error", err)...)
		return
	}
	l.logger.Log(ctx, l.level, "exchange completed", args...)
}

func (l *Logging) attrs(uri string, msg message.Message) []any {
	args := []any{"uri", uri}
	if soap, ok := msg.(*message.SOAPMessage); ok && soap.SOAPAction() != "" {
		args = append(args, "action", soap.SOAPAction())
	}
	if l.logPayloads {
		if data, err := message.ElementBytes(msg.Payload()); err == nil {
			args = append(args, "payload", string(data))
		}
	}
	return args
}
