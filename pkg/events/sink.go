package events

// EventSink represents a destination for session events.
// Implementations can publish events to different backends like watermill,
// channels, or nothing at all.
type EventSink interface {
	// PublishEvent publishes an event to the sink.
	// Returns an error if the event could not be published.
	PublishEvent(event Event) error
}
