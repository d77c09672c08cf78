package client

import (
	"sync"
	"time"

	"huddle/internal/entity"
)

// SendState is the lifecycle of one optimistic send. A pending entry moves
// to exactly one terminal state and stays there; late acks and late
// timeouts are no-ops.
type SendState int

const (
	StatePending SendState = iota
	StateConfirmed
	StateFailed
)

func (s SendState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PendingSend tracks one locally-inserted message until the server echoes a
// persisted id or the ack timeout elapses.
type PendingSend struct {
	TempId    string
	ChatId    string
	Type      string
	Content   entity.MessageContent
	CreatedAt time.Time

	mu        sync.Mutex
	state     SendState
	messageId string
	reason    string
	timer     *time.Timer
}

func newPendingSend(tempId, chatId, msgType string, content entity.MessageContent) *PendingSend {
	return &PendingSend{
		TempId:    tempId,
		ChatId:    chatId,
		Type:      msgType,
		Content:   content,
		CreatedAt: time.Now(),
		state:     StatePending,
	}
}

func (p *PendingSend) startTimer(d time.Duration, onTimeout func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timer = time.AfterFunc(d, onTimeout)
}

// Confirm transitions pending -> confirmed. Returns false if the entry
// already reached a terminal state.
func (p *PendingSend) Confirm(messageId string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePending {
		return false
	}
	p.state = StateConfirmed
	p.messageId = messageId
	if p.timer != nil {
		p.timer.Stop()
	}
	return true
}

// Fail transitions pending -> failed. Returns false if the entry already
// reached a terminal state.
func (p *PendingSend) Fail(reason string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePending {
		return false
	}
	p.state = StateFailed
	p.reason = reason
	if p.timer != nil {
		p.timer.Stop()
	}
	return true
}

func (p *PendingSend) State() SendState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// MessageId returns the persisted id once confirmed, empty otherwise.
func (p *PendingSend) MessageId() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messageId
}

// Reason returns the failure reason once failed, empty otherwise.
func (p *PendingSend) Reason() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason
}
