package memengine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/shelfwise/circulation/eventstore"
)

const (
	logMsgQueryCompleted      = "eventstore operation: query completed"
	logMsgEventsAppended      = "eventstore operation: events appended"
	logMsgConcurrencyConflict = "eventstore operation: concurrency conflict detected"
	logAttrEventCount         = "event_count"
	logAttrExpectedSequence   = "expected_sequence"
	logAttrActualSequence     = "actual_sequence"
)

// ErrNoEventsToAppend is returned when Append is called without events.
var ErrNoEventsToAppend = errors.New("no events to append")

type storedEvent struct {
	event          eventstore.StorableEvent
	payload        map[string]any
	sequenceNumber eventstore.MaxSequenceNumberUint
}

// EventStore keeps all events of all dynamic event streams in one ordered slice.
type EventStore struct {
	mu               sync.RWMutex
	events           []storedEvent
	contextualLogger eventstore.ContextualLogger
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithContextualLogger sets a logger which receives operational messages at info level.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.contextualLogger = logger
		return nil
	}
}

// NewEventStore creates an empty EventStore.
func NewEventStore(options ...Option) (*EventStore, error) {
	es := &EventStore{}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// Query returns the events matching the filter in sequence order, together with the
// max sequence number of this dynamic event stream (0 if it is empty).
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	if err := ctx.Err(); err != nil {
		return eventstore.StorableEvents{}, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, stored := range es.events {
		if !matches(filter, stored) {
			continue
		}

		eventStream = append(eventStream, clone(stored.event))
		maxSequenceNumber = stored.sequenceNumber
	}

	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgQueryCompleted, logAttrEventCount, len(eventStream))
	}

	return eventStream, maxSequenceNumber, nil
}

// Append appends all events atomically if the max sequence number of the filter is still
// expectedMaxSequenceNumber, otherwise it returns eventstore.ErrConcurrencyConflict.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	storableEvents ...eventstore.StorableEvent,
) error {

	if len(storableEvents) == 0 {
		return ErrNoEventsToAppend
	}

	if err := ctx.Err(); err != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	toAppend := make([]storedEvent, 0, len(storableEvents))
	for _, event := range storableEvents {
		payload := make(map[string]any)
		if err := jsoniter.ConfigFastest.Unmarshal(event.PayloadJSON, &payload); err != nil {
			return errors.Join(eventstore.ErrAppendingEventFailed, eventstore.ErrInvalidPayloadJSON, err)
		}

		toAppend = append(toAppend, storedEvent{event: clone(event), payload: payload})
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	actualMaxSequenceNumber := eventstore.MaxSequenceNumberUint(0)
	for _, stored := range es.events {
		if matches(filter, stored) {
			actualMaxSequenceNumber = stored.sequenceNumber
		}
	}

	if actualMaxSequenceNumber != expectedMaxSequenceNumber {
		if es.contextualLogger != nil {
			es.contextualLogger.InfoContext(
				ctx,
				logMsgConcurrencyConflict,
				logAttrExpectedSequence, expectedMaxSequenceNumber,
				logAttrActualSequence, actualMaxSequenceNumber,
			)
		}

		return eventstore.ErrConcurrencyConflict
	}

	next := eventstore.MaxSequenceNumberUint(len(es.events))
	for i := range toAppend {
		next++
		toAppend[i].sequenceNumber = next
	}

	es.events = append(es.events, toAppend...)

	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgEventsAppended, logAttrEventCount, len(toAppend))
	}

	return nil
}

// EventCount returns the number of events in the store.
func (es *EventStore) EventCount() int {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return len(es.events)
}

func matches(filter eventstore.Filter, stored storedEvent) bool {
	items := filter.Items()
	if len(items) == 0 {
		return true
	}

	for _, item := range items {
		if matchesItem(item, stored) {
			return true
		}
	}

	return false
}

func matchesItem(item eventstore.FilterItem, stored storedEvent) bool {
	if len(item.EventTypes()) > 0 && !slices.Contains(item.EventTypes(), stored.event.EventType) {
		return false
	}

	predicates := item.Predicates()
	if len(predicates) == 0 {
		return true
	}

	for _, predicate := range predicates {
		hit := matchesPredicate(predicate, stored.payload)

		if item.AllPredicatesMustMatch() && !hit {
			return false
		}

		if !item.AllPredicatesMustMatch() && hit {
			return true
		}
	}

	return item.AllPredicatesMustMatch()
}

func matchesPredicate(predicate eventstore.FilterPredicate, payload map[string]any) bool {
	val, ok := payload[predicate.Key()].(string)

	return ok && val == predicate.Val()
}

func clone(event eventstore.StorableEvent) eventstore.StorableEvent {
	return eventstore.StorableEvent{
		EventType:    event.EventType,
		OccurredAt:   event.OccurredAt.Truncate(time.Microsecond),
		PayloadJSON:  slices.Clone(event.PayloadJSON),
		MetadataJSON: slices.Clone(event.MetadataJSON),
	}
}
