package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/shelfwise/circulation/eventstore"
)

// ErrMappingToEventMetadataFailed is returned when metadata conversion fails.
var ErrMappingToEventMetadataFailed = errors.New("mapping to event metadata failed")

// MessageID represents a unique message identifier.
type MessageID = string

// CausationID represents the ID of the message that caused this event.
type CausationID = string

// CorrelationID represents the ID correlating related events, e.g. all events of one request.
type CorrelationID = string

// EventMetadata contains event tracking information.
type EventMetadata struct {
	MessageID     MessageID
	CausationID   CausationID
	CorrelationID CorrelationID
}

// BuildEventMetadata creates EventMetadata from UUID values.
func BuildEventMetadata(messageID uuid.UUID, causationID uuid.UUID, correlationID uuid.UUID) EventMetadata {
	return EventMetadata{
		MessageID:     messageID.String(),
		CausationID:   causationID.String(),
		CorrelationID: correlationID.String(),
	}
}

// EventMetadataFrom extracts EventMetadata from a StorableEvent.
func EventMetadataFrom(storableEvent eventstore.StorableEvent) (EventMetadata, error) {
	metadata := new(EventMetadata)
	err := jsoniter.ConfigFastest.Unmarshal(storableEvent.MetadataJSON, metadata)
	if err != nil {
		return EventMetadata{}, errors.Join(ErrMappingToEventMetadataFailed, err)
	}

	return *metadata, nil
}

type correlationIDKey struct{}

// WithCorrelationID returns a context carrying the correlation id of the current request.
func WithCorrelationID(ctx context.Context, correlationID uuid.UUID) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFrom returns the correlation id of the context, or uuid.Nil.
func CorrelationIDFrom(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(correlationIDKey{}).(uuid.UUID); ok {
		return id
	}

	return uuid.Nil
}

// EventMetadataForCommand builds the metadata of events appended for one command:
// the message id is new, the command is the cause, and the request (if any) correlates.
func EventMetadataForCommand(ctx context.Context, commandID uuid.UUID) EventMetadata {
	correlationID := CorrelationIDFrom(ctx)
	if correlationID == uuid.Nil {
		correlationID = commandID
	}

	return BuildEventMetadata(uuid.New(), commandID, correlationID)
}
