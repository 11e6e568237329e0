package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/events"
)

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// AuditService writes auth events to the structured log and feeds login
// metrics. It also turns denied policy decisions into access_denied events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	logins     LoginRecorder
}

// NewAuditService creates the service. logins may be nil.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, logins LoginRecorder) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		logins:     logins,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventLoginLocked, a.handleLoginLocked)
	a.dispatcher.Subscribe(events.EventAccessDenied, a.handleAccessDenied)
	a.dispatcher.Subscribe(events.EventAuthoritiesChanged, a.handleAuthoritiesChanged)
}

// PolicyDecided implements auth.DecisionObserver.
func (a *AuditService) PolicyDecided(d auth.Decision) {
	if d.Allowed || a.dispatcher == nil {
		return
	}
	event := events.NewEvent(events.EventAccessDenied, events.Actor{SubjectID: d.SubjectID}, events.AccessDeniedPayload{
		Method: d.Method,
		Route:  d.Route,
		Policy: d.Policy.String(),
	})
	if err := a.dispatcher.Publish(context.Background(), event); err != nil {
		a.logger.Warn("publish access_denied", zap.Error(err))
	}
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	a.recordLogin("success")
	a.logger.Info("LoginSucceeded", actorFields(event)...)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	a.recordLogin("failure")
	a.logger.Warn("LoginFailed", append(actorFields(event), zap.Any("payload", event.Payload))...)
	return nil
}

func (a *AuditService) handleLoginLocked(_ context.Context, event events.Event) error {
	a.recordLogin("locked")
	a.logger.Warn("LoginLocked", actorFields(event)...)
	return nil
}

func (a *AuditService) handleAccessDenied(_ context.Context, event events.Event) error {
	a.logger.Info("AccessDenied", append(actorFields(event), zap.Any("payload", event.Payload))...)
	return nil
}

func (a *AuditService) handleAuthoritiesChanged(_ context.Context, event events.Event) error {
	a.logger.Info("AuthoritiesChanged", append(actorFields(event), zap.Any("payload", event.Payload))...)
	return nil
}

func (a *AuditService) recordLogin(outcome string) {
	if a.logins != nil {
		a.logins.RecordLogin(outcome)
	}
}

func actorFields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
	}
	if event.Actor.SubjectID != nil {
		fields = append(fields, zap.Int64("subject_id", *event.Actor.SubjectID))
	}
	if event.Actor.Email != "" {
		fields = append(fields, zap.String("email", event.Actor.Email))
	}
	return fields
}
