package client

import (
	"sort"
	"sync"
	"time"

	"huddle/internal/entity"
)

// Store is the client's local view of message state. Broadcast events are
// applied reducer-style: each apply is keyed by message id, so replays and
// duplicate deliveries are no-ops. Optimistic sends live in a separate
// pending table keyed by tempId until the server confirms a persisted id.
type Store struct {
	mu       sync.RWMutex
	messages map[string][]entity.Message // chatId -> messages in arrival order
	index    map[string]string           // messageId -> chatId
	pending  map[string]*PendingSend     // tempId -> pending send
}

func NewStore() *Store {
	return &Store{
		messages: make(map[string][]entity.Message),
		index:    make(map[string]string),
		pending:  make(map[string]*PendingSend),
	}
}

// ApplyMessage inserts a broadcast message. Returns false when the id is
// already known.
func (s *Store) ApplyMessage(msg entity.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.index[msg.Id]; seen {
		return false
	}
	s.index[msg.Id] = msg.ChatId
	s.messages[msg.ChatId] = append(s.messages[msg.ChatId], msg)
	return true
}

// ApplyEdit replaces a known message in place. An edit for an unknown id is
// dropped; the authoritative copy arrives with the next history load.
func (s *Store) ApplyEdit(msg entity.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(msg.Id, func(m *entity.Message) {
		m.Content = msg.Content
		m.Metadata.EditedAt = msg.Metadata.EditedAt
	})
}

// ApplyDelete marks a known message soft-deleted.
func (s *Store) ApplyDelete(messageId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(messageId, func(m *entity.Message) {
		m.IsDeleted = true
	})
}

// ApplyRead appends a read receipt to each listed message, once per user.
func (s *Store) ApplyRead(userId string, messageIds []string, readAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range messageIds {
		s.replace(id, func(m *entity.Message) {
			for _, r := range m.ReadBy {
				if r.UserId == userId {
					return
				}
			}
			m.ReadBy = append(m.ReadBy, entity.ReadReceipt{UserId: userId, ReadAt: readAt})
		})
	}
}

// ApplyReactions overwrites a message's reaction list with the server's
// full copy.
func (s *Store) ApplyReactions(messageId string, reactions []entity.Reaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(messageId, func(m *entity.Message) {
		m.Metadata.Reactions = reactions
	})
}

func (s *Store) replace(messageId string, mutate func(*entity.Message)) bool {
	chatId, ok := s.index[messageId]
	if !ok {
		return false
	}
	list := s.messages[chatId]
	for i := range list {
		if list[i].Id == messageId {
			mutate(&list[i])
			return true
		}
	}
	return false
}

// Messages returns a copy of the chat's messages, excluding soft-deleted
// ones.
func (s *Store) Messages(chatId string) []entity.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.Message
	for _, m := range s.messages[chatId] {
		if m.IsDeleted {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Message looks up one message by id.
func (s *Store) Message(messageId string) (entity.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chatId, ok := s.index[messageId]
	if !ok {
		return entity.Message{}, false
	}
	for _, m := range s.messages[chatId] {
		if m.Id == messageId {
			return m, true
		}
	}
	return entity.Message{}, false
}

func (s *Store) addPending(p *PendingSend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[p.TempId] = p
}

// ConfirmPending resolves a tempId to its pending entry and marks it
// confirmed. The entry stays in the table so callers can still inspect its
// terminal state.
func (s *Store) ConfirmPending(tempId, messageId string) bool {
	s.mu.RLock()
	p, ok := s.pending[tempId]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return p.Confirm(messageId)
}

// FailPending marks a pending entry failed.
func (s *Store) FailPending(tempId, reason string) bool {
	s.mu.RLock()
	p, ok := s.pending[tempId]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return p.Fail(reason)
}

// Pending returns the entry for a tempId.
func (s *Store) Pending(tempId string) (*PendingSend, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pending[tempId]
	return p, ok
}

// PendingFor lists the chat's sends still awaiting confirmation, oldest
// first.
func (s *Store) PendingFor(chatId string) []*PendingSend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*PendingSend
	for _, p := range s.pending {
		if p.ChatId == chatId && p.State() == StatePending {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
