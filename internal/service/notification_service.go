package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/farconnect/attestation-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	webhookURL string
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, webhookURL string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		webhookURL: webhookURL,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventVerificationSucceeded, n.handleVerificationSucceeded)
	n.dispatcher.Subscribe(events.EventVerificationDuplicate, n.handleVerificationDuplicate)
	n.dispatcher.Subscribe(events.EventUserVerified, n.handleUserVerified)
	n.dispatcher.Subscribe(events.EventTokenIssued, n.handleTokenIssued)
}

func (n *NotificationService) handleVerificationSucceeded(ctx context.Context, event events.Event) error {
	n.logger.Info("VerificationSucceeded", zap.Int64("fid", event.FID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleVerificationDuplicate(ctx context.Context, event events.Event) error {
	n.logger.Info("VerificationDuplicate", zap.Int64("fid", event.FID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleUserVerified(ctx context.Context, event events.Event) error {
	n.logger.Info("UserVerified", zap.Int64("fid", event.FID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTokenIssued(ctx context.Context, event events.Event) error {
	n.logger.Info("TokenIssued", zap.Int64("fid", event.FID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.webhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.webhookURL),
		zap.Int64("fid", event.FID),
		zap.String("event_type", string(event.Type)))
}
