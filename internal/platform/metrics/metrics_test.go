package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveEvent(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveEvent("todo.created", nil)
	reg.ObserveEvent("todo.created", nil)
	reg.ObserveEvent("todo.deleted", errors.New("timeout"))

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.EventsPublished.WithLabelValues("todo.created", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.EventsPublished.WithLabelValues("todo.deleted", "error")))
}

func TestObserveEventNilRegistry(t *testing.T) {
	var reg *Registry
	assert.NotPanics(t, func() { reg.ObserveEvent("todo.created", nil) })
}
