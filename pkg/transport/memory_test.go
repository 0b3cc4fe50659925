package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"parley/pkg/models"
)

func TestMemoryPairCrossDelivers(t *testing.T) {
	a, b := NewMemoryPair()
	var got []models.Envelope
	b.OnReceive(func(env models.Envelope) { got = append(got, env) })

	require.NoError(t, a.Send(context.Background(), models.Envelope{From: "alice@example.net", Body: "hi"}))
	require.Len(t, got, 1)
	require.Equal(t, "hi", got[0].Body)
	require.Len(t, a.Sent(), 1)
}

func TestMemorySendWhileDisconnected(t *testing.T) {
	m := NewMemory()
	m.SetState(models.ConnDisconnected)
	err := m.Send(context.Background(), models.Envelope{Body: "x"})
	require.ErrorIs(t, err, ErrNotConnected)
	require.Empty(t, m.Sent())
}

func TestMemoryDeliverWithoutHandler(t *testing.T) {
	m := NewMemory()
	m.Deliver(models.Envelope{Body: "dropped"}) // must not panic
}
