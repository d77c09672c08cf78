package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"huddle/infrastructure/ws"
	"huddle/internal/entity"
	"huddle/internal/metrics"
	"huddle/internal/usecase"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler is the connection session manager: it admits connections, joins
// them to their rooms, dispatches inbound events and cleans up on
// disconnect.
type Handler struct {
	hub        ws.Hub
	authUc     usecase.AuthUsecase
	userUc     usecase.UserUsecase
	chatUc     usecase.ChatUsecase
	messageUc  usecase.MessageUsecase
	presenceUc usecase.PresenceUsecase
}

func NewHandler(
	hub ws.Hub,
	authUc usecase.AuthUsecase,
	userUc usecase.UserUsecase,
	chatUc usecase.ChatUsecase,
	messageUc usecase.MessageUsecase,
	presenceUc usecase.PresenceUsecase,
) *Handler {
	h := &Handler{
		hub:        hub,
		authUc:     authUc,
		userUc:     userUc,
		chatUc:     chatUc,
		messageUc:  messageUc,
		presenceUc: presenceUc,
	}

	// Server-side typing sweep: an entry that ages out without an explicit
	// stop still broadcasts isTyping:false.
	presenceUc.SetOnTypingExpired(h.handleTypingExpired)

	return h
}

// HandleWebSocket admits one connection. Authentication happens before the
// upgrade, so a bad token is refused with 401 and no session ever exists in
// a half-authenticated state.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return
	}

	user, err := h.authUc.ResolveToken(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade error: %v", err)
		return
	}

	ctx := context.Background()
	session := ws.NewSession(user.Id, conn)
	h.hub.Register(session)
	h.joinRooms(ctx, session)

	if online, err := h.presenceUc.MarkOnline(ctx, user.Id); err == nil {
		// Fire-and-forget: failure to notify is not fatal to the session.
		h.broadcastStatus(online, session.Id)
	} else {
		log.Printf("mark online error: %v", err)
	}

	go session.WritePump()
	session.ReadPump(h.hub, func(data []byte) {
		h.dispatch(ctx, session, user, data)
	})
}

// HandleDisconnect runs as the hub's unregister callback. Room membership
// is already discarded by the hub; the durable side effects happen here.
func (h *Handler) HandleDisconnect(session *ws.Session) {
	// Another live session keeps the user online.
	if h.hub.UserSessionCount(session.UserId) > 0 {
		return
	}

	ctx := context.Background()
	user, err := h.presenceUc.MarkOffline(ctx, session.UserId)
	if err != nil {
		log.Printf("mark offline error: %v", err)
		return
	}
	h.broadcastStatus(user, "")
}

func (h *Handler) dispatch(ctx context.Context, session *ws.Session, user entity.User, data []byte) {
	if !session.Allow() {
		h.sendError(session, "rate limit exceeded")
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.sendError(session, "invalid event envelope")
		return
	}

	switch env.Type {
	case EventJoinRooms:
		h.handleJoinRooms(ctx, session)
	case EventJoinChat:
		h.handleJoinChat(ctx, session, env.Data)
	case EventLeaveChat:
		h.handleLeaveChat(session, env.Data)
	case EventSendMessage:
		h.handleSendMessage(ctx, session, user, env.Data)
	case EventEditMessage:
		h.handleEditMessage(ctx, session, env.Data)
	case EventDeleteMessage:
		h.handleDeleteMessage(ctx, session, env.Data)
	case EventTypingStart:
		h.handleTyping(session, user, env.Data, true)
	case EventTypingStop:
		h.handleTyping(session, user, env.Data, false)
	case EventMarkRead:
		h.handleMarkRead(ctx, session, env.Data)
	case EventAddReaction, EventRemoveReaction:
		h.handleReaction(ctx, session, env.Data)
	case EventUpdateStatus:
		h.handleUpdateStatus(ctx, session, env.Data)
	default:
		h.sendError(session, "unknown event type")
	}
}

// joinRooms subscribes the session to every chat the user participates in,
// plus the user's private room. Membership is connection-scoped and rebuilt
// from durable records on every (re)connect.
func (h *Handler) joinRooms(ctx context.Context, session *ws.Session) {
	h.hub.Join(session, ws.UserRoom(session.UserId))

	chats, err := h.chatUc.Index(ctx, session.UserId)
	if err != nil {
		log.Printf("join rooms error: %v", err)
		h.sendError(session, "failed to join chat rooms")
		return
	}
	for _, chat := range chats {
		h.hub.Join(session, ws.ChatRoom(chat.Id))
	}
}

func (h *Handler) handleJoinRooms(ctx context.Context, session *ws.Session) {
	h.joinRooms(ctx, session)
}

func (h *Handler) handleJoinChat(ctx context.Context, session *ws.Session, data json.RawMessage) {
	var req JoinChatRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ChatId == "" {
		h.sendError(session, "invalid join_chat payload")
		return
	}

	if err := h.chatUc.Authorize(ctx, session.UserId, req.ChatId); err != nil {
		h.sendActionError(session, err)
		return
	}
	h.hub.Join(session, ws.ChatRoom(req.ChatId))
}

func (h *Handler) handleLeaveChat(session *ws.Session, data json.RawMessage) {
	var req JoinChatRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ChatId == "" {
		h.sendError(session, "invalid leave_chat payload")
		return
	}
	h.hub.Leave(session, ws.ChatRoom(req.ChatId))
}

func (h *Handler) handleSendMessage(ctx context.Context, session *ws.Session, user entity.User, data json.RawMessage) {
	var req SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(session, "invalid send_message payload")
		return
	}

	message, err := h.messageUc.Send(ctx, usecase.SendInput{
		ChatId:   req.ChatId,
		SenderId: session.UserId,
		Type:     req.Type,
		Content:  req.Content,
		ReplyTo:  req.ReplyTo,
	})
	if err != nil {
		// Fail-closed: nothing was broadcast before the durable commit.
		h.sendActionError(session, err)
		return
	}
	metrics.MessagesSent.Inc()

	// The room broadcast includes the sender's own other sessions for
	// multi-device consistency; the tempId ack goes to this session only.
	if payload, err := Encode(EventNewMessage, NewMessagePayload{Message: message}); err == nil {
		h.hub.Broadcast(ws.ChatRoom(message.ChatId), payload, "")
	}

	if ack, err := Encode(EventMessageSent, MessageSentPayload{
		TempId:    req.TempId,
		MessageId: message.Id,
		Timestamp: message.CreatedAt,
	}); err == nil {
		session.Send(ack)
	}

	for _, mention := range message.Metadata.Mentions {
		notif, err := Encode(EventMention, MentionPayload{
			MessageId:  message.Id,
			ChatId:     message.ChatId,
			SenderId:   user.Id,
			SenderName: user.Name,
			Content:    message.Content.Text,
		})
		if err != nil {
			continue
		}
		h.hub.Broadcast(ws.UserRoom(mention.UserId), notif, "")
	}
}

func (h *Handler) handleEditMessage(ctx context.Context, session *ws.Session, data json.RawMessage) {
	var req EditMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req.MessageId == "" {
		h.sendError(session, "invalid edit_message payload")
		return
	}

	message, err := h.messageUc.Edit(ctx, session.UserId, req.MessageId, req.Text)
	if err != nil {
		h.sendActionError(session, err)
		return
	}

	if payload, err := Encode(EventMessageEdited, MessageEditedPayload{Message: message}); err == nil {
		h.hub.Broadcast(ws.ChatRoom(message.ChatId), payload, "")
	}
}

func (h *Handler) handleDeleteMessage(ctx context.Context, session *ws.Session, data json.RawMessage) {
	var req DeleteMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req.MessageId == "" {
		h.sendError(session, "invalid delete_message payload")
		return
	}

	message, err := h.messageUc.Delete(ctx, session.UserId, req.MessageId)
	if err != nil {
		h.sendActionError(session, err)
		return
	}

	if payload, err := Encode(EventMessageDeleted, MessageDeletedPayload{
		MessageId: message.Id,
		ChatId:    message.ChatId,
	}); err == nil {
		h.hub.Broadcast(ws.ChatRoom(message.ChatId), payload, "")
	}
}

func (h *Handler) handleTyping(session *ws.Session, user entity.User, data json.RawMessage, isTyping bool) {
	var req TypingRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ChatId == "" {
		h.sendError(session, "invalid typing payload")
		return
	}

	// Typing rides on room membership; a session that never joined the
	// room has nothing to signal.
	if !h.hub.InRoom(session, ws.ChatRoom(req.ChatId)) {
		h.sendError(session, "access denied")
		return
	}

	if isTyping {
		h.presenceUc.StartTyping(req.ChatId, session.UserId)
	} else {
		h.presenceUc.StopTyping(req.ChatId, session.UserId)
	}

	h.broadcastTyping(req.ChatId, session.UserId, user.Name, isTyping, session.Id)
}

func (h *Handler) handleTypingExpired(chatId, userId string) {
	userName := ""
	if user, err := h.userUc.Get(context.Background(), userId); err == nil {
		userName = user.Name
	}
	h.broadcastTyping(chatId, userId, userName, false, "")
}

func (h *Handler) broadcastTyping(chatId, userId, userName string, isTyping bool, excludeId string) {
	payload, err := Encode(EventUserTyping, UserTypingPayload{
		UserId:   userId,
		UserName: userName,
		ChatId:   chatId,
		IsTyping: isTyping,
	})
	if err != nil {
		return
	}
	h.hub.Broadcast(ws.ChatRoom(chatId), payload, excludeId)
}

func (h *Handler) handleMarkRead(ctx context.Context, session *ws.Session, data json.RawMessage) {
	var req MarkReadRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ChatId == "" || len(req.MessageIds) == 0 {
		h.sendError(session, "invalid mark_messages_read payload")
		return
	}

	newlyRead, readAt, err := h.messageUc.MarkRead(ctx, session.UserId, req.ChatId, req.MessageIds)
	if err != nil {
		h.sendActionError(session, err)
		return
	}
	if len(newlyRead) == 0 {
		return
	}

	// One batched event for the whole mark, not one per message.
	if payload, err := Encode(EventMessagesRead, MessagesReadPayload{
		UserId:     session.UserId,
		ChatId:     req.ChatId,
		MessageIds: newlyRead,
		ReadAt:     readAt,
	}); err == nil {
		h.hub.Broadcast(ws.ChatRoom(req.ChatId), payload, session.Id)
	}
}

func (h *Handler) handleReaction(ctx context.Context, session *ws.Session, data json.RawMessage) {
	var req ReactionRequest
	if err := json.Unmarshal(data, &req); err != nil || req.MessageId == "" {
		h.sendError(session, "invalid reaction payload")
		return
	}

	message, reactions, added, err := h.messageUc.ToggleReaction(ctx, session.UserId, req.MessageId, req.Emoji)
	if err != nil {
		h.sendActionError(session, err)
		return
	}

	eventType := EventReactionRemoved
	if added {
		eventType = EventReactionAdded
	}
	if payload, err := Encode(eventType, ReactionPayload{
		MessageId: message.Id,
		ChatId:    message.ChatId,
		UserId:    session.UserId,
		Emoji:     req.Emoji,
		Reactions: reactions,
	}); err == nil {
		h.hub.Broadcast(ws.ChatRoom(message.ChatId), payload, "")
	}
}

func (h *Handler) handleUpdateStatus(ctx context.Context, session *ws.Session, data json.RawMessage) {
	var req UpdateStatusRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(session, "invalid update_status payload")
		return
	}

	user, err := h.presenceUc.UpdateStatus(ctx, session.UserId, req.Status)
	if err != nil {
		h.sendActionError(session, err)
		return
	}
	h.broadcastStatus(user, "")
}

func (h *Handler) broadcastStatus(user entity.User, excludeId string) {
	payload, err := Encode(EventUserStatus, UserStatusPayload{
		User:     user.Projection(),
		LastSeen: user.LastSeen,
	})
	if err != nil {
		return
	}
	h.hub.BroadcastAll(payload, excludeId)
}

// sendActionError maps a usecase error onto a scoped error event for the
// originating session. Other sessions never see it and the connection
// stays up.
func (h *Handler) sendActionError(session *ws.Session, err error) {
	switch {
	case errors.Is(err, usecase.ErrAccessDenied):
		h.sendError(session, "access denied")
	case errors.Is(err, usecase.ErrEditWindowExpired):
		h.sendError(session, "edit window expired")
	case errors.Is(err, usecase.ErrNotFound):
		h.sendError(session, "not found")
	case errors.Is(err, usecase.ErrValidation):
		h.sendError(session, err.Error())
	default:
		log.Printf("handler error: %v", err)
		h.sendError(session, "internal server error")
	}
}

func (h *Handler) sendError(session *ws.Session, message string) {
	metrics.HandlerErrors.Inc()
	payload, err := Encode(EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	session.Send(payload)
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
