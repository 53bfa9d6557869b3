package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/valuation-service/internal/config"
	"github.com/spec-kit/valuation-service/internal/events"
)

// NotificationService mirrors domain events to operators and monitoring.
// Deliveries here are advisory by definition; handler errors never surface
// into the workflow.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCaseCreated, n.handleCaseCreated)
	n.dispatcher.Subscribe(events.EventCaseClaimed, n.handleCaseClaimed)
	n.dispatcher.Subscribe(events.EventCaseStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventCaseResultsSent, n.handleResultsSent)
}

func (n *NotificationService) handleCaseCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseCreated", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleCaseClaimed(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseClaimed", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseStatusChanged", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleResultsSent(ctx context.Context, event events.Event) error {
	n.logger.Info("CaseResultsSent", zap.String("case_id", event.CaseID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("case_id", event.CaseID),
		zap.String("event_type", string(event.Type)))
}
