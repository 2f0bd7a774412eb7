package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdleBusDeliversToAllSubscribers(t *testing.T) {
	b := NewIdleBus()
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.Emit(IdleDatabase)

	for _, sub := range []<-chan Event{sub1, sub2} {
		select {
		case ev := <-sub:
			require.Equal(t, IdleDatabase, ev)
		case <-time.After(time.Second):
			t.Fatal("subscriber never received event")
		}
	}
}

func TestIdleBusDropsWhenSubscriberChannelFull(t *testing.T) {
	b := NewIdleBus()
	sub := b.Subscribe()

	for i := 0; i < 16; i++ {
		b.Emit(IdleDatabase)
	}

	require.NotPanics(t, func() {
		for {
			select {
			case <-sub:
			default:
				return
			}
		}
	})
}
