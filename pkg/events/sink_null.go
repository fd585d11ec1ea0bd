package events

// NullSink is a no-op EventSink implementation that discards all events.
type NullSink struct{}

func NewNullSink() *NullSink {
	return &NullSink{}
}

func (n *NullSink) PublishEvent(event Event) error {
	return nil
}

var _ EventSink = (*NullSink)(nil)
