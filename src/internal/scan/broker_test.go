package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/mipimipi/dbupdate/src/internal/dbtree"
)

func TestDeleteBrokerBlocksUntilAck(t *testing.T) {
	bridge := NewBridge()
	broker := NewDeleteBroker(bridge)

	root := dbtree.NewRoot()
	m := dbtree.NewMutator(broker, func() {})
	song := m.AddSong(root, "x.mp3", 1, dbtree.Tags{})

	done := make(chan struct{})
	go func() {
		broker.Delete(root, song)
		close(done)
	}()

	ev := <-bridge.Events()
	require.Equal(t, EventDeleteRequest, ev.Kind)
	require.Same(t, song, ev.Song)

	select {
	case <-done:
		t.Fatal("Delete returned before Ack")
	case <-time.After(20 * time.Millisecond):
	}

	broker.Ack()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Delete did not return after Ack")
	}
}

func TestDeleteBrokerPanicsOnSlotAlreadyOccupied(t *testing.T) {
	bridge := NewBridge()
	broker := NewDeleteBroker(bridge)

	root := dbtree.NewRoot()
	m := dbtree.NewMutator(broker, func() {})
	song1 := m.AddSong(root, "one.mp3", 1, dbtree.Tags{})
	song2 := m.AddSong(root, "two.mp3", 2, dbtree.Tags{})

	go broker.Delete(root, song1)
	<-bridge.Events()

	require.Panics(t, func() {
		broker.Delete(root, song2)
	})

	broker.Ack()
}
