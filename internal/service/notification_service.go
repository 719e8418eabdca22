package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/events"
)

// NotificationService turns domain events into operator-facing notifications. Delivery
// channels are outside this service; it records what would be sent.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventComplaintCreated, n.handleComplaintCreated)
	n.dispatcher.Subscribe(events.EventComplaintStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventComplaintAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventComplaintSLABreached, n.handleSLABreached)
}

func (n *NotificationService) handleComplaintCreated(_ context.Context, event events.Event) error {
	n.logger.Info("ComplaintCreated",
		zap.String("complaint_id", event.ComplaintID),
		zap.String("ticket_number", event.TicketNumber),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("ComplaintStatusChanged",
		zap.String("complaint_id", event.ComplaintID),
		zap.String("ticket_number", event.TicketNumber),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleAssigned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ComplaintAssignedPayload)
	if !ok || payload.NewAssigneeID == nil {
		return nil
	}
	n.logger.Info("ComplaintAssigned",
		zap.String("complaint_id", event.ComplaintID),
		zap.String("ticket_number", event.TicketNumber),
		zap.String("assignee_id", *payload.NewAssigneeID))
	return nil
}

func (n *NotificationService) handleSLABreached(_ context.Context, event events.Event) error {
	n.logger.Warn("ComplaintSLABreached",
		zap.String("complaint_id", event.ComplaintID),
		zap.String("ticket_number", event.TicketNumber),
		zap.Any("payload", event.Payload))
	return nil
}
