package events

import (
	"context"
)

// ChannelSink forwards events to a Go channel. PublishEvent blocks until the
// event is received or the sink context is done, so receivers see events in
// publication order.
type ChannelSink struct {
	ctx context.Context
	ch  chan Event
}

func NewChannelSink(ctx context.Context, size int) *ChannelSink {
	return &ChannelSink{
		ctx: ctx,
		ch:  make(chan Event, size),
	}
}

func (c *ChannelSink) Events() <-chan Event {
	return c.ch
}

func (c *ChannelSink) PublishEvent(event Event) error {
	select {
	case c.ch <- event:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

var _ EventSink = (*ChannelSink)(nil)
