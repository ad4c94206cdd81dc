package notifier

import (
	"testing"

	"github.com/euacreations/streamvault/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub(4, zerolog.Nop())
	defer hub.Close()

	ch1, cancel1 := hub.Subscribe()
	defer cancel1()
	ch2, cancel2 := hub.Subscribe()
	defer cancel2()

	ev := models.PipelineEvent{Type: models.PipelineUploadComplete, AssetID: "a1"}
	hub.Publish(ev)

	assert.Equal(t, ev, <-ch1)
	assert.Equal(t, ev, <-ch2)
}

func TestHubPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Second publish overflows the buffer and must be dropped, not block.
	hub.Publish(models.PipelineEvent{AssetID: "first"})
	hub.Publish(models.PipelineEvent{AssetID: "second"})

	got := <-ch
	assert.Equal(t, "first", got.AssetID)
	select {
	case ev, ok := <-ch:
		require.False(t, ok, "unexpected buffered event %v", ev)
	default:
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after unsubscribe must not panic.
	hub.Publish(models.PipelineEvent{AssetID: "a"})
}

func TestHubCloseTerminatesSubscribers(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())

	ch, cancel := hub.Subscribe()
	hub.Close()

	_, ok := <-ch
	assert.False(t, ok)

	// cancel after Close is a no-op.
	cancel()

	ch2, cancel2 := hub.Subscribe()
	_, ok = <-ch2
	assert.False(t, ok)
	cancel2()
}
