package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/valuation-service/internal/config"
)

// Template identifies an outbound notification template.
type Template string

const (
	TemplateValuationResults Template = "valuation-results"
	TemplateCaseCompleted    Template = "case-completed"
	TemplateCaseReceived     Template = "case-received"
)

// Dispatcher is the external notification collaborator. Deliveries are
// advisory for most transitions: a failed send is logged by the caller, not
// propagated as a transition failure.
type Dispatcher interface {
	Send(ctx context.Context, to string, template Template, data map[string]any) error
}

// logDispatcher records deliveries through the logger. Stands in for the
// real email/SMS gateway in development and tests.
type logDispatcher struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewLogDispatcher creates the logging dispatcher.
func NewLogDispatcher(logger *zap.Logger, cfg config.NotificationConfig) Dispatcher {
	return &logDispatcher{logger: logger, cfg: cfg}
}

func (d *logDispatcher) Send(ctx context.Context, to string, template Template, data map[string]any) error {
	d.logger.Info("notification dispatched",
		zap.String("from", d.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("template", string(template)),
		zap.Any("data", data))
	return nil
}
