package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/wardline-health/staff-access-service/internal/config"
	"github.com/wardline-health/staff-access-service/internal/domain"
	"github.com/wardline-health/staff-access-service/internal/events"
	"github.com/wardline-health/staff-access-service/internal/ws"
)

// LiveFeed receives serialized workflow events for connected clients.
type LiveFeed interface {
	Publish(msg ws.Message)
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	feed       LiveFeed
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. feed may be nil.
func NewNotificationService(dispatcher events.Dispatcher, feed LiveFeed, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		feed:       feed,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccessRequestCreated, n.handleAccessRequestCreated)
	n.dispatcher.Subscribe(events.EventAccessRequestReviewed, n.handleAccessRequestReviewed)
	n.dispatcher.Subscribe(events.EventOverrideUpdated, n.handleSettingsChanged)
	n.dispatcher.Subscribe(events.EventManagersUpdated, n.handleSettingsChanged)
	n.dispatcher.Subscribe(events.EventPersonalPermissionsUpdated, n.handleSettingsChanged)
}

func (n *NotificationService) handleAccessRequestCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("AccessRequestCreated", zap.String("request_id", event.Subject), zap.Any("payload", event.Payload))
	owner := event.Actor.Email
	if payload, ok := event.Payload.(events.AccessRequestCreatedPayload); ok {
		owner = payload.RequesterEmail
	}
	n.sendEmailNotificationStub(ctx, event)
	return n.pushLive(owner, event)
}

func (n *NotificationService) handleAccessRequestReviewed(ctx context.Context, event events.Event) error {
	n.logger.Info("AccessRequestReviewed", zap.String("request_id", event.Subject), zap.Any("payload", event.Payload))
	var owner domain.Email
	if payload, ok := event.Payload.(events.AccessRequestReviewedPayload); ok {
		owner = payload.RequesterEmail
	}
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return n.pushLive(owner, event)
}

func (n *NotificationService) handleSettingsChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("SettingsChanged",
		zap.String("event_type", string(event.Type)),
		zap.String("subject", event.Subject),
		zap.String("actor", string(event.Actor.Email)))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) pushLive(owner domain.Email, event events.Event) error {
	if n.feed == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	n.feed.Publish(ws.Message{Owner: owner, Payload: payload})
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("subject", event.Subject),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("subject", event.Subject),
		zap.String("event_type", string(event.Type)))
}
