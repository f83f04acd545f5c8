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
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishSeedEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Topic: "seeder.seeds.events"}

	evt := NewSeedEvent(ActionApplied, 3, []string{"20250902054629_demo_user"})
	require.NoError(t, p.PublishSeedEvent(context.Background(), evt))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, evt.EventID, string(msg.Key))

	var got SeedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "applied", got.Action)
	assert.Equal(t, int64(3), got.GroupID)
	assert.Equal(t, []string{"20250902054629_demo_user"}, got.Seeds)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestPublishSeedEventWriterError(t *testing.T) {
	writeErr := errors.New("broker unavailable")
	p := &Producer{Writer: &fakeWriter{err: writeErr}}

	err := p.PublishSeedEvent(context.Background(), NewSeedEvent(ActionReverted, 1, nil))
	assert.ErrorIs(t, err, writeErr)
}

func TestNewSeedEventIDsAreUnique(t *testing.T) {
	a := NewSeedEvent(ActionApplied, 1, nil)
	b := NewSeedEvent(ActionApplied, 1, nil)
	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestSeedEventWireFormat(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Topic: "seeder.seeds.events"}

	evt := NewSeedEvent(ActionReverted, 7, []string{"20250902054629_demo_user"})
	require.NoError(t, p.PublishSeedEvent(context.Background(), evt))
	require.Len(t, w.messages, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &payload))

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"event_id", "action", "group_id", "seeds", "occurred_at"}, keys)
	assert.Equal(t, "reverted", payload["action"])
	assert.Equal(t, float64(7), payload["group_id"])
	assert.Equal(t, []any{"20250902054629_demo_user"}, payload["seeds"])
}

func TestSeedEventWithoutSeedsEncodesEmptyList(t *testing.T) {
	b, err := json.Marshal(NewSeedEvent(ActionApplied, 1, nil))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"seeds":[]`)
}

func TestEnsureTopicsExistNeedsBrokers(t *testing.T) {
	assert.Error(t, EnsureTopicsExist(nil, []string{"t"}))
}

func TestProducerClose(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w}
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
