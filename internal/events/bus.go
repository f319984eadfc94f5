package events

import (
	"sync"
	"time"
)

// EventType represents the kinds of events the pipeline emits
type EventType string

const (
	EventAnalysisStarted   EventType = "ANALYSIS_STARTED"
	EventAnalysisCompleted EventType = "ANALYSIS_COMPLETED"
	EventSignalDetected    EventType = "SIGNAL_DETECTED"
	EventApprovalPending   EventType = "APPROVAL_PENDING"
	EventApprovalResolved  EventType = "APPROVAL_RESOLVED"
	EventOrderSubmitted    EventType = "ORDER_SUBMITTED"
	EventOrderRejected     EventType = "ORDER_REJECTED"
	EventError             EventType = "ERROR"
)

// Event represents one system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// Bus manages event publishing and subscriptions
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType][]Subscriber),
	}
}

// Subscribe registers a subscriber for a specific event type
func (b *Bus) Subscribe(eventType EventType, subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for every event
func (b *Bus) SubscribeAll(subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allSubs = append(b.allSubs, subscriber)
}

// Publish sends an event to all subscribers. Dispatch is asynchronous so
// a slow subscriber never blocks the pipeline.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	for _, sub := range b.subscribers[event.Type] {
		go sub(event)
	}
	for _, sub := range b.allSubs {
		go sub(event)
	}
}

// PublishSignal publishes a detected-signal event
func (b *Bus) PublishSignal(symbol, signalType, direction string, level float64) {
	b.Publish(Event{
		Type: EventSignalDetected,
		Data: map[string]interface{}{
			"symbol":      symbol,
			"signal_type": signalType,
			"direction":   direction,
			"level":       level,
		},
	})
}

// PublishApprovalPending publishes a pending-approval event
func (b *Bus) PublishApprovalPending(requestID, symbol, side string, entry, stop, target float64) {
	b.Publish(Event{
		Type: EventApprovalPending,
		Data: map[string]interface{}{
			"request_id":  requestID,
			"symbol":      symbol,
			"side":        side,
			"entry_price": entry,
			"stop_loss":   stop,
			"take_profit": target,
		},
	})
}

// PublishApprovalResolved publishes the outcome of an approval decision
func (b *Bus) PublishApprovalResolved(requestID, decision, reason string) {
	b.Publish(Event{
		Type: EventApprovalResolved,
		Data: map[string]interface{}{
			"request_id": requestID,
			"decision":   decision,
			"reason":     reason,
		},
	})
}

// PublishError publishes an error event
func (b *Bus) PublishError(component string, err error) {
	if err == nil {
		return
	}
	b.Publish(Event{
		Type: EventError,
		Data: map[string]interface{}{
			"component": component,
			"error":     err.Error(),
		},
	})
}
