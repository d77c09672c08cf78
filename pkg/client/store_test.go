package client

import (
	"testing"
	"time"

	"huddle/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(id, chatId, text string) entity.Message {
	return entity.Message{
		Id:      id,
		ChatId:  chatId,
		Type:    entity.MessageTypeText,
		Content: entity.MessageContent{Text: text},
	}
}

func TestApplyMessageDedupes(t *testing.T) {
	s := NewStore()

	assert.True(t, s.ApplyMessage(msg("m1", "c1", "hello")))
	assert.False(t, s.ApplyMessage(msg("m1", "c1", "hello")), "duplicate delivery is a no-op")

	assert.Len(t, s.Messages("c1"), 1)
}

func TestApplyEdit(t *testing.T) {
	s := NewStore()
	require.True(t, s.ApplyMessage(msg("m1", "c1", "hello")))

	editedAt := time.Now()
	edited := msg("m1", "c1", "hello, edited")
	edited.Metadata.EditedAt = &editedAt

	assert.True(t, s.ApplyEdit(edited))

	got, ok := s.Message("m1")
	require.True(t, ok)
	assert.Equal(t, "hello, edited", got.Content.Text)
	assert.NotNil(t, got.Metadata.EditedAt)
}

func TestApplyEditUnknownMessage(t *testing.T) {
	s := NewStore()
	assert.False(t, s.ApplyEdit(msg("ghost", "c1", "x")))
}

func TestApplyDeleteHidesMessage(t *testing.T) {
	s := NewStore()
	require.True(t, s.ApplyMessage(msg("m1", "c1", "a")))
	require.True(t, s.ApplyMessage(msg("m2", "c1", "b")))

	assert.True(t, s.ApplyDelete("m1"))

	list := s.Messages("c1")
	require.Len(t, list, 1)
	assert.Equal(t, "m2", list[0].Id)
}

func TestApplyReadOncePerUser(t *testing.T) {
	s := NewStore()
	require.True(t, s.ApplyMessage(msg("m1", "c1", "a")))

	readAt := time.Now()
	s.ApplyRead("u2", []string{"m1", "ghost"}, readAt)
	s.ApplyRead("u2", []string{"m1"}, readAt.Add(time.Second))

	got, ok := s.Message("m1")
	require.True(t, ok)
	require.Len(t, got.ReadBy, 1)
	assert.Equal(t, "u2", got.ReadBy[0].UserId)
	assert.Equal(t, readAt, got.ReadBy[0].ReadAt, "replays keep the first receipt")
}

func TestApplyReactionsOverwrites(t *testing.T) {
	s := NewStore()
	require.True(t, s.ApplyMessage(msg("m1", "c1", "a")))

	s.ApplyReactions("m1", []entity.Reaction{{Emoji: "👍", UserIds: []string{"u1", "u2"}}})
	s.ApplyReactions("m1", []entity.Reaction{{Emoji: "👍", UserIds: []string{"u2"}}})

	got, ok := s.Message("m1")
	require.True(t, ok)
	require.Len(t, got.Metadata.Reactions, 1)
	assert.Equal(t, []string{"u2"}, got.Metadata.Reactions[0].UserIds)
}

func TestConfirmPending(t *testing.T) {
	s := NewStore()
	p := newPendingSend("tmp1", "c1", entity.MessageTypeText, entity.MessageContent{Text: "hi"})
	s.addPending(p)

	assert.False(t, s.ConfirmPending("unknown", "msg-1"))
	assert.True(t, s.ConfirmPending("tmp1", "msg-1"))
	assert.False(t, s.ConfirmPending("tmp1", "msg-1"), "second ack is a no-op")

	got, ok := s.Pending("tmp1")
	require.True(t, ok)
	assert.Equal(t, StateConfirmed, got.State())
	assert.Equal(t, "msg-1", got.MessageId())
}

func TestPendingForListsUnconfirmedOldestFirst(t *testing.T) {
	s := NewStore()

	first := newPendingSend("tmp1", "c1", entity.MessageTypeText, entity.MessageContent{Text: "1"})
	second := newPendingSend("tmp2", "c1", entity.MessageTypeText, entity.MessageContent{Text: "2"})
	second.CreatedAt = first.CreatedAt.Add(time.Millisecond)
	elsewhere := newPendingSend("tmp3", "c2", entity.MessageTypeText, entity.MessageContent{Text: "3"})
	s.addPending(second)
	s.addPending(first)
	s.addPending(elsewhere)

	pending := s.PendingFor("c1")
	require.Len(t, pending, 2)
	assert.Equal(t, "tmp1", pending[0].TempId)
	assert.Equal(t, "tmp2", pending[1].TempId)

	require.True(t, s.ConfirmPending("tmp1", "msg-1"))
	pending = s.PendingFor("c1")
	require.Len(t, pending, 1)
	assert.Equal(t, "tmp2", pending[0].TempId)
}
