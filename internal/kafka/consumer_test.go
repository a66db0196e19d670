package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"

	segmentio "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/capsvc/selfservice/internal/errors"
	"github.com/capsvc/selfservice/internal/eventing"
)

type fakeReader struct {
	messages  []segmentio.Message
	committed []segmentio.Message
	cancel    context.CancelFunc
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (segmentio.Message, error) {
	if len(f.messages) == 0 {
		// No messages left: stop the consumer loop as a cancelled context would.
		f.cancel()
		return segmentio.Message{}, ctx.Err()
	}
	message := f.messages[0]
	f.messages = f.messages[1:]
	return message, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...segmentio.Message) error {
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConsumer_Start_DispatchesAndCommits(t *testing.T) {
	registry := eventing.NewRegistry()
	var handled [][]byte
	require.NoError(t, registry.Register("membership_application.submitted", func(_ context.Context, data []byte) error {
		handled = append(handled, data)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		messages: []segmentio.Message{
			{Offset: 1, Value: []byte(`{"type":"membership_application.submitted","data":{"application_id":"a"}}`)},
		},
		cancel: cancel,
	}

	consumer := NewConsumerWithReader(reader, registry, testLogger())
	consumer.Start(ctx)

	require.Len(t, handled, 1)
	assert.JSONEq(t, `{"application_id":"a"}`, string(handled[0]))
	assert.Len(t, reader.committed, 1)
}

func TestConsumer_ProcessMessage_HyphenatedTypeTag(t *testing.T) {
	registry := eventing.NewRegistry()
	var handled int
	require.NoError(t, registry.Register("membership_application.approval_received", func(context.Context, []byte) error {
		handled++
		return nil
	}))

	consumer := NewConsumerWithReader(&fakeReader{}, registry, testLogger())

	commit := consumer.processMessage(context.Background(), segmentio.Message{
		Value: []byte(`{"type":"membership-application.approval-received","data":{}}`),
	})

	assert.True(t, commit)
	assert.Equal(t, 1, handled)
}

func TestConsumer_ProcessMessage_MalformedEnvelopeIsSkipped(t *testing.T) {
	consumer := NewConsumerWithReader(&fakeReader{}, eventing.NewRegistry(), testLogger())

	commit := consumer.processMessage(context.Background(), segmentio.Message{
		Value: []byte(`not json`),
	})

	assert.True(t, commit, "poison messages must be committed, retrying cannot fix them")
}

func TestConsumer_ProcessMessage_UnknownTypeIsSkipped(t *testing.T) {
	consumer := NewConsumerWithReader(&fakeReader{}, eventing.NewRegistry(), testLogger())

	commit := consumer.processMessage(context.Background(), segmentio.Message{
		Value: []byte(`{"type":"membership_application.unknown","data":{}}`),
	})

	assert.True(t, commit)
}

func TestConsumer_ProcessMessage_HandlerErrorLeavesOffsetUncommitted(t *testing.T) {
	registry := eventing.NewRegistry()
	require.NoError(t, registry.Register("membership_application.finalized", func(context.Context, []byte) error {
		return apperrors.New("transient failure")
	}))

	consumer := NewConsumerWithReader(&fakeReader{}, registry, testLogger())

	commit := consumer.processMessage(context.Background(), segmentio.Message{
		Value: []byte(`{"type":"membership_application.finalized","data":{}}`),
	})

	assert.False(t, commit)
}

func TestConsumer_Close(t *testing.T) {
	reader := &fakeReader{}
	consumer := NewConsumerWithReader(reader, eventing.NewRegistry(), testLogger())

	require.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
}
