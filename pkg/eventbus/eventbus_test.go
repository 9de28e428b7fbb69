package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testEvent string

func (e testEvent) Name() string { return string(e) }

func TestBus_DeliversToSubscribers(t *testing.T) {
	bus := New(zap.NewNop())

	var (
		mu       sync.Mutex
		received []string
	)
	record := func(tag string) Listener {
		return func(ctx context.Context, event Event) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, tag+":"+event.Name())
			return nil
		}
	}
	bus.Subscribe("a", record("first"))
	bus.Subscribe("a", record("second"))
	bus.Subscribe("b", record("other"))

	bus.Publish(context.Background(), testEvent("a"))
	bus.Wait()

	assert.ElementsMatch(t, []string{"first:a", "second:a"}, received)
}

func TestBus_IsolatesFailingListeners(t *testing.T) {
	bus := New(zap.NewNop())

	done := make(chan struct{}, 1)
	bus.Subscribe("x", func(context.Context, Event) error { panic("boom") })
	bus.Subscribe("x", func(context.Context, Event) error { return errors.New("failed") })
	bus.Subscribe("x", func(ctx context.Context, _ Event) error {
		assert.NoError(t, ctx.Err())
		done <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent("x"))
	bus.Wait()

	assert.Len(t, done, 1, "a cancelled caller context must not stop delivery")
}

func TestBus_PublishWithoutListeners(t *testing.T) {
	bus := New(zap.NewNop())
	bus.Publish(context.Background(), testEvent("nobody"))
	bus.Wait()
}
