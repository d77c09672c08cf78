package ws

// Hub is the delivery half of the membership registry: it owns the mapping
// from rooms to live sessions and fans payloads out to them. Authorization
// (who may join which room) stays with the caller. Implementations must be
// safe for concurrent use; a distributed deployment swaps in RedisHub.
type Hub interface {
	Run()
	Register(s *Session)
	Unregister(s *Session)
	Join(s *Session, room string)
	Leave(s *Session, room string)
	InRoom(s *Session, room string) bool
	// Broadcast delivers to every session in the room except the session
	// with excludeId (empty string excludes nobody).
	Broadcast(room string, payload []byte, excludeId string)
	// BroadcastAll delivers to every connected session.
	BroadcastAll(payload []byte, excludeId string)
	SessionCount() int
	UserSessionCount(userId string) int
	SetOnUnregister(fn func(s *Session))
}

// UserRoom is the private room keyed to a user identity, used for targeted
// notifications such as mentions. Every session of the user joins it.
func UserRoom(userId string) string {
	return "user:" + userId
}

// ChatRoom is the room carrying all live events for one chat.
func ChatRoom(chatId string) string {
	return "chat:" + chatId
}
