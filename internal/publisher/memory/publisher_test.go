package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "catalog-runs", map[string]string{"run_id": "a"})
	require.NoError(t, err)
	assert.Equal(t, "memory-1", id1)

	id2, err := pub.Publish(context.Background(), "catalog-audit", "payload")
	require.NoError(t, err)
	assert.Equal(t, "memory-2", id2)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "catalog-runs", msgs[0].Topic)
	assert.JSONEq(t, `{"run_id":"a"}`, string(msgs[0].Data))
	assert.Equal(t, "catalog-audit", msgs[1].Topic)

	msgs[0].Topic = "modified"
	assert.Equal(t, "catalog-runs", pub.Messages()[0].Topic)
}

func TestPublisherRejectsUnencodablePayload(t *testing.T) {
	t.Parallel()

	pub := New()
	_, err := pub.Publish(context.Background(), "catalog-runs", make(chan int))
	assert.Error(t, err)
	assert.Empty(t, pub.Messages())
}
