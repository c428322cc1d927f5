package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/shelfwise/circulation/circulation/shared/core"
	"github.com/shelfwise/circulation/eventstore"
)

var (
	// ErrMappingToDomainEventFailed is returned when domain event conversion fails.
	ErrMappingToDomainEventFailed = errors.New("mapping to domain event failed")

	// ErrMappingToDomainEventUnknownEventType is returned for unrecognized event types.
	ErrMappingToDomainEventUnknownEventType = errors.New("unknown event type")
)

// DomainEventsFrom converts multiple StorableEvents to DomainEvents.
func DomainEventsFrom(storableEvents eventstore.StorableEvents) (core.DomainEvents, error) {
	domainEvents := make(core.DomainEvents, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		domainEvent, err := DomainEventFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// DomainEventFrom converts a StorableEvent to its corresponding DomainEvent.
func DomainEventFrom(storableEvent eventstore.StorableEvent) (core.DomainEvent, error) {
	switch storableEvent.EventType {
	case core.BookStockRegisteredEventType:
		return unmarshalAs[core.BookStockRegistered](storableEvent.PayloadJSON)

	case core.AvailabilityAdjustedEventType:
		return unmarshalAs[core.AvailabilityAdjusted](storableEvent.PayloadJSON)

	case core.LoanIssuedEventType:
		return unmarshalAs[core.LoanIssued](storableEvent.PayloadJSON)

	case core.LoanReturnedEventType:
		return unmarshalAs[core.LoanReturned](storableEvent.PayloadJSON)

	case core.OverdueFineAssessedEventType:
		return unmarshalAs[core.OverdueFineAssessed](storableEvent.PayloadJSON)

	case core.FinePaidEventType:
		return unmarshalAs[core.FinePaid](storableEvent.PayloadJSON)
	}

	return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
}

func unmarshalAs[E core.DomainEvent](payloadJSON []byte) (core.DomainEvent, error) {
	var event E

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &event); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return event, nil
}
