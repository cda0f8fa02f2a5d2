package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]any{"transaction_id": "txn_1_abc", "amount": 29.99}

	evt, err := NewEvent("purchase.completed", "purchase-1", "purchase", "bookzone", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, "purchase.completed", evt.EventType)
	assert.Equal(t, "purchase-1", evt.AggregateID)
	assert.Equal(t, 1, evt.Version)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	evt, err := NewEvent("book.created", "book-1", "book", "bookzone", map[string]string{"title": "Go"})
	require.NoError(t, err)
	evt.WithCorrelationID("corr-1")

	data, err := evt.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, evt.EventID, got.EventID)
	assert.Equal(t, "corr-1", got.CorrelationID)

	var payload map[string]string
	require.NoError(t, got.UnmarshalData(&payload))
	assert.Equal(t, "Go", payload["title"])
}
