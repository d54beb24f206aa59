package events

import (
	"context"
	"reflect"
	"sync"

	ferrors "github.com/LinhMuks-DFox/Smart-Latex/internal/foundation/errors"
)

// Bus carries watch-mode control events between the watcher, the debouncer,
// the scheduler, and the build controller inside one process. Subscriptions
// are typed; Publish blocks until every matching subscriber has accepted the
// event or the context is canceled. The bus is not durable and is not meant
// to be: events that matter beyond the process lifetime go to the history
// store, not here.
type Bus struct {
	mu     sync.Mutex
	subs   []*subscription
	closed bool
}

type subscription struct {
	eventType reflect.Type
	deliver   func(ctx context.Context, evt any) error
	stop      func()
}

func (s *subscription) accepts(evtType reflect.Type) bool {
	if s.eventType == evtType {
		return true
	}
	return s.eventType.Kind() == reflect.Interface && evtType.Implements(s.eventType)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers interest in events of type T and returns the delivery
// channel plus an unsubscribe func. An interface T receives every published
// event whose concrete type implements it. After Close the channel comes
// back already closed.
func Subscribe[T any](b *Bus, buffer int) (<-chan T, func()) {
	ch := make(chan T, buffer)
	sub := &subscription{eventType: reflect.TypeFor[T]()}

	var stopOnce sync.Once
	sub.stop = func() {
		stopOnce.Do(func() { close(ch) })
	}
	sub.deliver = func(ctx context.Context, evt any) error {
		select {
		case ch <- evt.(T):
			return nil
		case <-ctx.Done():
			return ferrors.WrapError(ctx.Err(), ferrors.CategoryWatch, "event delivery canceled").
				WithContext("event_type", sub.eventType.String()).
				Build()
		}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.stop()
		return ch, func() {}
	}
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		sub.stop()
	}
	return ch, unsubscribe
}

// Publish delivers evt to every matching subscriber in subscription order,
// blocking on each until it accepts the event or ctx is canceled.
func (b *Bus) Publish(ctx context.Context, evt any) error {
	if evt == nil {
		return ferrors.ValidationError("event cannot be nil").Build()
	}

	evtType := reflect.TypeOf(evt)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ferrors.WatchError("event bus is closed").Build()
	}
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.accepts(evtType) {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		if err := s.deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the bus and every subscription channel. Publishing afterwards
// fails with a watch-category error.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}
