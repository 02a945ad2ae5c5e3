package events

import (
	"github.com/kelindar/event"
)

// Bus broadcasts typed events in process.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers e to every subscriber of T.
func Publish[T Event](b *Bus, e T) {
	event.Publish(b.dispatcher, e)
}

// Subscribe registers fn for events of type T and returns a function that
// removes it.
func Subscribe[T Event](b *Bus, fn func(T)) (unsubscribe func()) {
	return event.Subscribe(b.dispatcher, fn)
}

// SubscribeToChannel forwards events of type T to ch without blocking;
// events are dropped while ch is full.
func SubscribeToChannel[T Event](b *Bus, ch chan<- any) (unsubscribe func()) {
	return event.Subscribe(b.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
