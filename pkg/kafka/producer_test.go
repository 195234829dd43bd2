package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written []kafka.Message
	calls   int
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_PublishBatch(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "search-events")

	err := p.PublishBatch(context.Background(), []Event{
		{Key: "cat", Type: "search", Value: map[string]int{"results": 2}},
		{Key: "dog", Value: "plain"},
	})
	require.NoError(t, err)
	require.Len(t, w.written, 2)
	assert.Equal(t, 1, w.calls)

	first := w.written[0]
	assert.Equal(t, "cat", string(first.Key))
	assert.JSONEq(t, `{"results":2}`, string(first.Value))
	assert.Equal(t, "search", header(first, HeaderEventType))
	assert.Equal(t, "application/json", header(first, HeaderContentType))

	var plain string
	require.NoError(t, json.Unmarshal(w.written[1].Value, &plain))
	assert.Equal(t, "plain", plain)
	assert.Empty(t, header(w.written[1], HeaderEventType))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishBatchEncodeFailureWritesNothing(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "search-events")

	err := p.PublishBatch(context.Background(), []Event{
		{Key: "ok", Value: 1},
		{Key: "bad", Value: make(chan int)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "bad"`)
	assert.Zero(t, w.calls)
}

func TestProducer_PublishBatchEmptyAndWriteError(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "search-events")
	require.NoError(t, p.PublishBatch(context.Background(), nil))
	assert.Zero(t, w.calls)

	w.err = errors.New("broker down")
	err := p.PublishBatch(context.Background(), []Event{{Key: "k", Value: 1}})
	assert.ErrorIs(t, err, w.err)
}
