package listeners_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"resource-system/internal/events"
	"resource-system/internal/listeners"
	"resource-system/internal/listeners/mocks"
)

func TestNotificationListener_StatusUpdateNotifiesRequestor(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)

	event := events.RequestStatusUpdatedEvent{RequestID: 7, ResourceID: 3, Status: "approved", UpdatedBy: 1, Requestor: 42}

	notifier.EXPECT().Broadcast(events.RequestStatusUpdated, event).Return(nil)
	notifier.EXPECT().SendNotification(uint64(42), event, events.RequestStatusUpdated).Return(nil)
	publisher.EXPECT().Publish(gomock.Any(), "3", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, msg any) error {
			m, ok := msg.(listeners.BrokerMessage)
			require.True(t, ok)
			require.Equal(t, events.RequestStatusUpdated, m.Type)
			require.NotEmpty(t, m.ID)
			return nil
		})

	l := listeners.NewNotificationListener(notifier, publisher, zap.NewNop())
	require.NoError(t, l.Handle(context.Background(), event))
}

func TestNotificationListener_BroadcastOnlyWithoutRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)

	event := events.ResourceChangedEvent{Action: events.ResourceUpdated, ResourceID: 9, ChangedBy: 1}

	notifier.EXPECT().Broadcast(events.ResourceUpdated, event).Return(nil)
	publisher.EXPECT().Publish(gomock.Any(), "9", gomock.Any()).Return(nil)

	l := listeners.NewNotificationListener(notifier, publisher, zap.NewNop())
	require.NoError(t, l.Handle(context.Background(), event))
}

func TestNotificationListener_JoinsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)

	hubErr := errors.New("hub stopped")
	kafkaErr := errors.New("broker down")
	event := events.RequestCreatedEvent{RequestID: 1, ResourceID: 2, Requestor: 3}

	notifier.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(hubErr)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(kafkaErr)

	l := listeners.NewNotificationListener(notifier, publisher, zap.NewNop())
	err := l.Handle(context.Background(), event)
	require.ErrorIs(t, err, hubErr)
	require.ErrorIs(t, err, kafkaErr)
}
