package services

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var errNoRecipient = errors.New("notification has no recipient")

type WebSocketNotificationServiceInterface interface {
	Broadcast(messageType string, payload interface{}) error
	SendNotification(userID uint64, payload interface{}, messageType string) error
}

// NotificationHub is the part of the websocket hub used for delivery.
type NotificationHub interface {
	Broadcast(messageType string, payload interface{}) error
	SendMessageToUser(userID uint64, payload interface{}, messageType string) error
}

type WebSocketNotificationService struct {
	hub    NotificationHub
	logger *zap.Logger
}

func NewWebSocketNotificationService(hub NotificationHub, logger *zap.Logger) WebSocketNotificationServiceInterface {
	return &WebSocketNotificationService{hub: hub, logger: logger.Named("ws-notify")}
}

// Broadcast reaches every connected client, e.g. resource status changes that
// any open resource list has to reflect.
func (s *WebSocketNotificationService) Broadcast(messageType string, payload interface{}) error {
	if err := s.hub.Broadcast(messageType, payload); err != nil {
		s.logger.Warn("broadcast dropped", zap.String("type", messageType), zap.Error(err))
		return fmt.Errorf("broadcast %s: %w", messageType, err)
	}
	return nil
}

// SendNotification reaches every open connection of one user, e.g. the
// requestor of a decided booking.
func (s *WebSocketNotificationService) SendNotification(userID uint64, payload interface{}, messageType string) error {
	if userID == 0 {
		return fmt.Errorf("%s: %w", messageType, errNoRecipient)
	}
	if err := s.hub.SendMessageToUser(userID, payload, messageType); err != nil {
		s.logger.Warn("user notification dropped",
			zap.Uint64("userID", userID),
			zap.String("type", messageType),
			zap.Error(err))
		return fmt.Errorf("notify user %d with %s: %w", userID, messageType, err)
	}
	return nil
}
