package websocket

import "encoding/json"

// EventType identifies a websocket event. The catalog is closed: dispatch
// is a single switch over these constants, so an unknown type is an error
// event back to the sender, never a silent drop.
type EventType string

const (
	// Client -> Server
	EventJoinRooms      EventType = "join_rooms"
	EventJoinChat       EventType = "join_chat"
	EventLeaveChat      EventType = "leave_chat"
	EventSendMessage    EventType = "send_message"
	EventEditMessage    EventType = "edit_message"
	EventDeleteMessage  EventType = "delete_message"
	EventTypingStart    EventType = "typing_start"
	EventTypingStop     EventType = "typing_stop"
	EventMarkRead       EventType = "mark_messages_read"
	EventAddReaction    EventType = "add_reaction"
	EventRemoveReaction EventType = "remove_reaction"
	EventUpdateStatus   EventType = "update_status"

	// Server -> Client
	EventNewMessage      EventType = "new_message"
	EventMessageSent     EventType = "message_sent"
	EventMessageEdited   EventType = "message_edited"
	EventMessageDeleted  EventType = "message_deleted"
	EventUserTyping      EventType = "user_typing"
	EventMessagesRead    EventType = "messages_read"
	EventReactionAdded   EventType = "reaction_added"
	EventReactionRemoved EventType = "reaction_removed"
	EventUserStatus      EventType = "user_status_change"
	EventMention         EventType = "mention_notification"
	EventError           EventType = "error"
)

// Envelope wraps every websocket frame with its event type.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode marshals a payload into a framed envelope.
func Encode(eventType EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Data: raw})
}
