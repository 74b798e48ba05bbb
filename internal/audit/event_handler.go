package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/digital-notary/internal/core/events"
)

// EventHandler turns domain events into audit log entries.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandleAuditable(ctx context.Context, event events.Event) error {
	auditable, ok := event.(events.AuditableEvent)
	if !ok {
		h.logger.Error("event is not auditable", "event_type", event.EventType())
		return fmt.Errorf("expected AuditableEvent, got %T", event)
	}

	entry, err := h.service.Record(ctx, event.EventType(), auditable.Describe(), auditable.ActorID(), auditable.CompanyID())
	if err != nil {
		return fmt.Errorf("audit %s: %w", event.EventType(), err)
	}

	h.logger.Debug("audit entry recorded",
		"audit_id", entry.ID,
		"event_id", event.EventID(),
		"action", entry.Action)
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.SubscribeAll(events.AuditedEventTypes(), h.HandleAuditable)
	h.logger.Info("audit event handlers registered", "handlers", events.AuditedEventTypes())
}
