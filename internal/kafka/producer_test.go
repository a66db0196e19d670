package kafka

import (
	"context"
	"errors"
	"testing"

	segmentio "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []segmentio.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...segmentio.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer)

	payload := []byte(`{"type":"membership_application.submitted","data":{}}`)
	err := producer.Publish(context.Background(), "selfservice.membership", "app-1", payload)
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	assert.Equal(t, "selfservice.membership", writer.messages[0].Topic)
	assert.Equal(t, []byte("app-1"), writer.messages[0].Key)
	assert.Equal(t, payload, writer.messages[0].Value)
}

func TestProducer_Publish_WriterError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	producer := NewProducerWithWriter(writer)

	err := producer.Publish(context.Background(), "selfservice.membership", "app-1", []byte(`{}`))
	assert.ErrorContains(t, err, "failed to publish message")
}

func TestProducer_Close(t *testing.T) {
	writer := &fakeWriter{}
	producer := NewProducerWithWriter(writer)

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}
