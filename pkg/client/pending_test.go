package client

import (
	"testing"
	"time"

	"huddle/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingConfirm(t *testing.T) {
	p := newPendingSend("tmp1", "c1", entity.MessageTypeText, entity.MessageContent{Text: "hi"})

	require.Equal(t, StatePending, p.State())
	assert.True(t, p.Confirm("msg-1"))
	assert.Equal(t, StateConfirmed, p.State())
	assert.Equal(t, "msg-1", p.MessageId())
}

func TestPendingTerminalStatesAreSticky(t *testing.T) {
	p := newPendingSend("tmp1", "c1", entity.MessageTypeText, entity.MessageContent{Text: "hi"})

	require.True(t, p.Confirm("msg-1"))
	assert.False(t, p.Fail("too late"), "a late timeout after confirmation is a no-op")
	assert.Equal(t, StateConfirmed, p.State())
	assert.Empty(t, p.Reason())

	q := newPendingSend("tmp2", "c1", entity.MessageTypeText, entity.MessageContent{Text: "yo"})
	require.True(t, q.Fail("ack timeout"))
	assert.False(t, q.Confirm("msg-2"), "a late ack after failure is a no-op")
	assert.Equal(t, StateFailed, q.State())
	assert.Equal(t, "ack timeout", q.Reason())
	assert.Empty(t, q.MessageId())
}

func TestPendingTimeoutFires(t *testing.T) {
	p := newPendingSend("tmp1", "c1", entity.MessageTypeText, entity.MessageContent{Text: "hi"})

	timedOut := make(chan struct{})
	p.startTimer(10*time.Millisecond, func() {
		if p.Fail("ack timeout") {
			close(timedOut)
		}
	})

	select {
	case <-timedOut:
	case <-time.After(time.Second):
		t.Fatal("ack timeout never fired")
	}
	assert.Equal(t, StateFailed, p.State())
}

func TestPendingConfirmStopsTimer(t *testing.T) {
	p := newPendingSend("tmp1", "c1", entity.MessageTypeText, entity.MessageContent{Text: "hi"})

	fired := make(chan struct{}, 1)
	p.startTimer(20*time.Millisecond, func() {
		if p.Fail("ack timeout") {
			fired <- struct{}{}
		}
	})

	require.True(t, p.Confirm("msg-1"))

	select {
	case <-fired:
		t.Fatal("timer fired after confirmation")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, StateConfirmed, p.State())
}

func TestSendStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "confirmed", StateConfirmed.String())
	assert.Equal(t, "failed", StateFailed.String())
}
