package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	w := new(mockWriter)
	var sent []kafka.Message
	w.On("WriteMessages", ctx, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil).Once()

	p := &KafkaPublisher{Writer: w}
	err := p.Publish(ctx, Event{Type: OrderPlaced, Actor: "Alice", UserName: "Alice", OrderID: "o-1", Amount: 300, At: at})
	require.NoError(t, err)
	w.AssertExpectations(t)
	require.Len(t, sent, 1)

	msg := sent[0]
	assert.Equal(t, "Alice", string(msg.Key))
	assert.True(t, msg.Time.Equal(at))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, OrderPlaced, decoded.Type)
	assert.Equal(t, int64(300), decoded.Amount)
}

func TestKafkaPublisher_KeyFallsBackToType(t *testing.T) {
	ctx := context.Background()
	w := new(mockWriter)
	w.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 && string(msgs[0].Key) == string(MenuReplaced)
	})).Return(nil).Once()

	require.NoError(t, (&KafkaPublisher{Writer: w}).Publish(ctx, Event{Type: MenuReplaced, Actor: "Admin"}))
	w.AssertExpectations(t)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	ctx := context.Background()
	w := new(mockWriter)
	w.On("WriteMessages", ctx, mock.Anything).Return(errors.New("broker down")).Once()

	assert.Error(t, (&KafkaPublisher{Writer: w}).Publish(ctx, Event{Type: DebtSettled}))
	w.AssertExpectations(t)
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := new(mockWriter)
	w.On("Close").Return(nil).Once()

	require.NoError(t, (&KafkaPublisher{Writer: w}).Close())
	w.AssertExpectations(t)
}
