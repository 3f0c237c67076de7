package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/events"
)

// AuditService records account activity events to the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to account events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handle("UserRegistered"))
	a.dispatcher.Subscribe(events.EventUserLoggedIn, a.handle("UserLoggedIn"))
	a.dispatcher.Subscribe(events.EventUserLoggedOut, a.handle("UserLoggedOut"))
	a.dispatcher.Subscribe(events.EventUserUpdated, a.handle("UserUpdated"))
	a.dispatcher.Subscribe(events.EventUserDeleted, a.handle("UserDeleted"))
}

func (a *AuditService) handle(name string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.Int64("user_id", event.UserID),
		}
		if event.ActorID != nil {
			fields = append(fields, zap.Int64("actor_id", *event.ActorID))
		}
		if event.Payload != nil {
			fields = append(fields, zap.Any("payload", event.Payload))
		}
		a.logger.Info(name, fields...)
		return nil
	}
}
