package events_test

import (
	"testing"

	"github.com/ardanlabs/blockstore/foundation/events"
	"github.com/stretchr/testify/require"
)

func TestSendAndRelease(t *testing.T) {
	evts := events.New()

	a := evts.Acquire("a")
	b := evts.Acquire("b")
	require.Equal(t, 2, evts.Subscribers())

	// Acquiring the same id twice hands back the same channel.
	require.Equal(t, a, evts.Acquire("a"))

	sent := evts.Send("block 1 appended")
	require.Equal(t, uint64(1), sent.Seq)

	require.Equal(t, sent, <-a)
	require.Equal(t, sent, <-b)

	require.NoError(t, evts.Release("a"))
	_, open := <-a
	require.False(t, open)

	require.Error(t, evts.Release("a"))
	require.Equal(t, 1, evts.Subscribers())

	second := evts.Send("block 2 appended")
	require.Equal(t, uint64(2), second.Seq)
	require.Equal(t, second, <-b)
}

func TestSendDropsForSlowSubscriber(t *testing.T) {
	evts := events.New()
	ch := evts.Acquire("slow")

	const total = 150
	for range total {
		evts.Send("tick")
	}

	require.Len(t, ch, 100)
	require.Equal(t, uint64(total-100), evts.Dropped())
}

func TestShutdown(t *testing.T) {
	evts := events.New()
	ch := evts.Acquire("a")

	evts.Shutdown()

	_, open := <-ch
	require.False(t, open)
	require.Equal(t, 0, evts.Subscribers())

	// Sending with no subscribers is a no-op.
	evts.Send("after shutdown")
}
