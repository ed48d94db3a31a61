// Package bus provides the in-process pub/sub that decouples the webhook
// shell from the components consuming classified events.
package bus

import (
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Event is one published occurrence. Payload carries the component-specific
// value, typically a classified webhook event or a label change.
type Event struct {
	Type      string
	Source    string
	Payload   any
	Timestamp time.Time
}

// Handler is a callback for events.
type Handler func(Event)

// EventBus is a topic-based publish/subscribe hub with wildcard
// subscriptions and a bounded replay buffer.
type EventBus struct {
	mu         sync.RWMutex
	handlers   map[string][]namedHandler
	history    []Event
	maxHistory int
	logger     *slog.Logger
}

type namedHandler struct {
	id string
	fn Handler
}

// NewEventBus creates an EventBus keeping up to 1000 events for replay.
func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers:   make(map[string][]namedHandler),
		maxHistory: 1000,
		logger:     logger,
	}
}

// On registers a handler for the given event type, "*" for all events.
// The returned id unsubscribes via Off.
func (eb *EventBus) On(eventType string, fn Handler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	id := eventType + "-" + strconv.Itoa(len(eb.handlers[eventType]))
	eb.handlers[eventType] = append(eb.handlers[eventType], namedHandler{id: id, fn: fn})
	return id
}

// Off removes a handler by its id.
func (eb *EventBus) Off(eventType, handlerID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	handlers := eb.handlers[eventType]
	for i, h := range handlers {
		if h.id == handlerID {
			eb.handlers[eventType] = append(handlers[:i], handlers[i+1:]...)
			return
		}
	}
}

// Emit publishes an event synchronously to matching and wildcard handlers.
// A panicking handler is logged and isolated from the rest.
func (eb *EventBus) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eb.mu.Lock()
	if len(eb.history) >= eb.maxHistory {
		eb.history = eb.history[1:]
	}
	eb.history = append(eb.history, event)
	handlers := append([]namedHandler(nil), eb.handlers[event.Type]...)
	handlers = append(handlers, eb.handlers["*"]...)
	eb.mu.Unlock()

	for _, h := range handlers {
		eb.dispatch(event, h)
	}
}

func (eb *EventBus) dispatch(event Event, h namedHandler) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error("event handler panic", "event", event.Type, "handler", h.id, "panic", r)
		}
	}()
	h.fn(event)
}

// EmitAsync publishes an event without waiting for handlers.
func (eb *EventBus) EmitAsync(event Event) {
	go eb.Emit(event)
}

// Replay returns buffered events of the given type since the given time,
// "*" for all types.
func (eb *EventBus) Replay(eventType string, since time.Time) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	var result []Event
	for _, e := range eb.history {
		if e.Timestamp.Before(since) {
			continue
		}
		if eventType == "*" || e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

// HistoryLen returns the number of buffered events.
func (eb *EventBus) HistoryLen() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.history)
}

// Well-known event types. Webhook events are published under
// "chatbot:<event type>" so consumers can subscribe per kind.
const (
	EventChatbotMessage  = "chatbot:message"
	EventChatbotEcho     = "chatbot:echo"
	EventChatbotDelivery = "chatbot:delivery"
	EventChatbotRead     = "chatbot:read"
	EventChatbotUnknown  = "chatbot:unknown"

	EventMessageSent = "message.sent"

	EventLabelCreated       = "label.created"
	EventLabelDeleted       = "label.deleted"
	EventSubscriberLabeled  = "subscriber.labels_updated"
	EventSubscriberAssigned = "subscriber.assigned"
)
