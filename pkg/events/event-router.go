package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog/log"

	"github.com/elmaestro544/scigenius/pkg/helpers"
)

// EventRouter owns an in-process pubsub and a watermill router that fans
// session events out to registered handlers.
type EventRouter struct {
	logger     watermill.LoggerAdapter
	Publisher  message.Publisher
	Subscriber message.Subscriber
	router     *message.Router
	verbose    bool
	dumpOutput io.Writer
}

type EventRouterOption func(*EventRouter)

func WithLogger(logger watermill.LoggerAdapter) EventRouterOption {
	return func(r *EventRouter) {
		r.logger = logger
	}
}

func WithVerbose(verbose bool) EventRouterOption {
	return func(r *EventRouter) {
		r.verbose = verbose
		r.logger = helpers.NewWatermill(log.Logger)
	}
}

func WithDumpOutput(w io.Writer) EventRouterOption {
	return func(r *EventRouter) {
		r.dumpOutput = w
	}
}

func NewEventRouter(options ...EventRouterOption) (*EventRouter, error) {
	ret := &EventRouter{
		logger:     watermill.NopLogger{},
		dumpOutput: os.Stdout,
	}

	for _, o := range options {
		o(ret)
	}

	goPubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, ret.logger)
	ret.Publisher = goPubSub
	ret.Subscriber = goPubSub

	router, err := message.NewRouter(message.RouterConfig{}, ret.logger)
	if err != nil {
		return nil, err
	}

	ret.router = router

	return ret, nil
}

func (e *EventRouter) Close() error {
	log.Debug().Msg("Closing publisher")
	err := e.Publisher.Close()
	if err != nil {
		log.Error().Err(err).Msg("Failed to close pubsub")
		// not returning just yet
	}

	log.Debug().Msg("Closing router")
	err = e.router.Close()
	if err != nil {
		log.Error().Err(err).Msg("Failed to close router")
	}
	log.Debug().Msg("Router closed")

	return nil
}

func (e *EventRouter) AddHandler(name string, topic string, f func(msg *message.Message) error) {
	e.router.AddNoPublisherHandler(name, topic, e.Subscriber, f)
}

// DumpRawEvents writes every event as indented JSON. Unless verbose is set,
// metadata is collapsed to the message id.
func (e *EventRouter) DumpRawEvents(msg *message.Message) error {
	defer msg.Ack()

	var s map[string]interface{}
	err := json.Unmarshal(msg.Payload, &s)
	if err != nil {
		return err
	}
	if !e.verbose {
		if meta, ok := s["meta"].(map[string]interface{}); ok {
			s["id"] = meta["message_id"]
		}
		delete(s, "meta")
	}
	s_, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.dumpOutput, string(s_))
	return err
}

func (e *EventRouter) Running() chan struct{} {
	return e.router.Running()
}

func (e *EventRouter) IsRunning() bool {
	return e.router.IsRunning()
}

func (e *EventRouter) Run(ctx context.Context) error {
	return e.router.Run(ctx)
}
