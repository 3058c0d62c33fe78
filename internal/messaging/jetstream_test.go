package messaging

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
)

type fakeJetStream struct {
	nats.JetStreamContext
	infoErr error
	added   []*nats.StreamConfig
}

func (f *fakeJetStream) StreamInfo(string, ...nats.JSOpt) (*nats.StreamInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &nats.StreamInfo{}, nil
}

func (f *fakeJetStream) AddStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.added = append(f.added, cfg)
	return &nats.StreamInfo{Config: *cfg}, nil
}

func TestEnsureEventStream_CreatesMissingStream(t *testing.T) {
	js := &fakeJetStream{infoErr: nats.ErrStreamNotFound}
	if err := EnsureEventStream(js); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(js.added) != 1 {
		t.Fatalf("expected stream to be added once, got %d", len(js.added))
	}
	cfg := js.added[0]
	if cfg.Name != EventsStream || len(cfg.Subjects) != 1 || cfg.Subjects[0] != EventsSubjects {
		t.Fatalf("unexpected stream config: %+v", cfg)
	}
}

func TestEnsureEventStream_KeepsExistingStream(t *testing.T) {
	js := &fakeJetStream{}
	if err := EnsureEventStream(js); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(js.added) != 0 {
		t.Fatalf("existing stream must not be re-added")
	}
}

func TestEnsureEventStream_PropagatesLookupErrors(t *testing.T) {
	js := &fakeJetStream{infoErr: errors.New("jetstream not enabled")}
	if err := EnsureEventStream(js); err == nil {
		t.Fatalf("expected error")
	}
}
