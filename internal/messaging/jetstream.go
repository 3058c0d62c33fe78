package messaging

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	EventsStream   = "TODO_EVENTS"
	EventsSubjects = "todo.event.>"

	eventsMaxAge = 7 * 24 * time.Hour
)

// EnsureEventStream creates the lifecycle event stream when it is missing.
// An existing stream is left untouched.
func EnsureEventStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(EventsStream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:      EventsStream,
		Subjects:  []string{EventsSubjects},
		Retention: nats.LimitsPolicy,
		Storage:   nats.FileStorage,
		MaxAge:    eventsMaxAge,
		Replicas:  1,
	})
	return err
}
