package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case e := <-sub.Ch():
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestPublishDeliversToPrefixMatch(t *testing.T) {
	h := New()
	content := h.Subscribe("content.")
	spaces := h.Subscribe("spaces.")
	all := h.Subscribe("")
	defer h.Unsubscribe(content)
	defer h.Unsubscribe(spaces)
	defer h.Unsubscribe(all)

	h.Publish(TopicContentChanged, ContentChangedEvent{Kind: types.KindNote, SpaceID: "s1"})

	e := receive(t, content)
	assert.Equal(t, TopicContentChanged, e.Topic)
	payload, ok := e.Payload.(ContentChangedEvent)
	require.True(t, ok)
	assert.Equal(t, types.KindNote, payload.Kind)

	e = receive(t, all)
	assert.Equal(t, TopicContentChanged, e.Topic)

	select {
	case e := <-spaces.Ch():
		t.Fatalf("spaces subscriber received %q", e.Topic)
	default:
	}
}

func TestPublishNonBlockingWhenBufferFull(t *testing.T) {
	h := New()
	sub := h.Subscribe(TopicSpacesChanged)
	defer h.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBufferSize*2; i++ {
			h.Publish(TopicSpacesChanged, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New()
	sub := h.Subscribe("")
	h.Unsubscribe(sub)

	_, open := <-sub.Ch()
	assert.False(t, open)

	// Idempotent, nil-safe.
	h.Unsubscribe(sub)
	h.Unsubscribe(nil)
}
