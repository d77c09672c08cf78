package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"huddle/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFramesPayload(t *testing.T) {
	frame, err := Encode(EventUserTyping, UserTypingPayload{
		UserId:   "u1",
		UserName: "Alice",
		ChatId:   "c1",
		IsTyping: true,
	})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventUserTyping, env.Type)

	var p UserTypingPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "u1", p.UserId)
	assert.True(t, p.IsTyping)
}

func TestEncodeNilPayload(t *testing.T) {
	frame, err := Encode(EventJoinRooms, nil)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventJoinRooms, env.Type)
}

func TestUserStatusPayloadCarriesProjection(t *testing.T) {
	user := entity.User{
		Id:       "u1",
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "hash",
		Status:   entity.StatusAway,
		LastSeen: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	frame, err := Encode(EventUserStatus, UserStatusPayload{
		User:     user.Projection(),
		LastSeen: user.LastSeen,
	})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))

	var p UserStatusPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "u1", p.User.Id)
	assert.Equal(t, "Alice", p.User.Name)
	assert.Equal(t, entity.StatusAway, p.User.Status)
	assert.Equal(t, user.LastSeen, p.LastSeen)

	// Only the projection rides in the broadcast, never account fields.
	assert.NotContains(t, string(env.Data), "alice@example.com")
	assert.NotContains(t, string(env.Data), "hash")
}

func TestEnvelopeRejectsMalformedFrame(t *testing.T) {
	var env Envelope
	err := json.Unmarshal([]byte(`{"type": 42}`), &env)
	assert.Error(t, err)
}
