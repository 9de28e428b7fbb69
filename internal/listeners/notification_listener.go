package listeners

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resource-system/internal/events"
	"resource-system/internal/services"
	"resource-system/pkg/broker"
	"resource-system/pkg/eventbus"
)

//go:generate mockgen -destination=mocks/publisher_mock.go -package=mocks resource-system/pkg/broker Publisher
//go:generate mockgen -destination=mocks/notifier_mock.go -package=mocks -mock_names=WebSocketNotificationServiceInterface=MockNotifier resource-system/internal/services WebSocketNotificationServiceInterface

// BrokerMessage is the record written to the event topic.
type BrokerMessage struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// NotificationListener fans domain events out to websocket clients and the
// optional broker.
type NotificationListener struct {
	wsNotificationService services.WebSocketNotificationServiceInterface
	publisher             broker.Publisher
	logger                *zap.Logger
}

func NewNotificationListener(
	wsNotificationService services.WebSocketNotificationServiceInterface,
	publisher broker.Publisher,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		wsNotificationService: wsNotificationService,
		publisher:             publisher,
		logger:                logger.Named("notifications"),
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	for _, name := range events.All {
		bus.Subscribe(name, l.Handle)
	}
	l.logger.Info("notification listener subscribed", zap.Strings("events", events.All))
}

func (l *NotificationListener) Handle(ctx context.Context, event eventbus.Event) error {
	n, ok := event.(events.Notification)
	if !ok {
		return nil
	}

	var errs []error
	if err := l.wsNotificationService.Broadcast(n.Name(), n); err != nil {
		errs = append(errs, fmt.Errorf("broadcast: %w", err))
	}
	if userID := n.Recipient(); userID != 0 {
		if err := l.wsNotificationService.SendNotification(userID, n, n.Name()); err != nil {
			errs = append(errs, fmt.Errorf("notify user %d: %w", userID, err))
		}
	}

	msg := BrokerMessage{
		ID:         uuid.NewString(),
		Type:       n.Name(),
		Payload:    n,
		OccurredAt: time.Now().UTC(),
	}
	if err := l.publisher.Publish(ctx, n.Key(), msg); err != nil {
		errs = append(errs, fmt.Errorf("publish: %w", err))
	}
	return errors.Join(errs...)
}
