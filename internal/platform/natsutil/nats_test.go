package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
)

type recordingJetStream struct {
	nats.JetStreamContext
	subjects []string
}

func (r *recordingJetStream) Publish(subj string, _ []byte, _ ...nats.PubOpt) (*nats.PubAck, error) {
	r.subjects = append(r.subjects, subj)
	return &nats.PubAck{Stream: "TODO_EVENTS"}, nil
}

func TestJetStreamPublisher_Publish(t *testing.T) {
	js := &recordingJetStream{}
	publisher := JetStreamPublisher{JS: js}
	if err := publisher.Publish("todo.event.1.owner.u", []byte(`{}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(js.subjects) != 1 || js.subjects[0] != "todo.event.1.owner.u" {
		t.Fatalf("unexpected subjects: %v", js.subjects)
	}
}

func TestClient_ConnectedWithoutConnection(t *testing.T) {
	var c *Client
	if err := c.Connected(); err == nil {
		t.Fatalf("expected error for nil client")
	}
	c.Close()
}
