package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	protocol "huddle/internal/delivery/websocket"
	"huddle/internal/entity"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultBaseRetryDelay = 2 * time.Second
	defaultMaxRetries     = 5
	defaultAckTimeout     = 10 * time.Second
	defaultTypingIdle     = 3 * time.Second
)

var ErrClosed = errors.New("client: closed")

// Config holds connection settings. Zero values fall back to defaults.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8080/ws.
	URL string
	// Token is the bearer access token presented during the handshake.
	Token string
	// BaseRetryDelay scales linearly with the attempt count, so successive
	// reconnects wait base, 2*base, 3*base and so on.
	BaseRetryDelay time.Duration
	// MaxRetries bounds consecutive failed reconnect attempts.
	MaxRetries int
	// AckTimeout is how long an optimistic send waits for message_sent
	// before transitioning to failed.
	AckTimeout time.Duration
	// TypingIdle is how long after the last keystroke signal a typing_stop
	// is sent automatically.
	TypingIdle time.Duration
}

// Handlers are optional callbacks invoked from the read loop. A nil handler
// is skipped. Store updates happen before the callback runs, so a handler
// reading the store sees the event already applied.
type Handlers struct {
	OnConnect        func()
	OnDisconnect     func(err error)
	OnNewMessage     func(msg entity.Message)
	OnMessageSent    func(tempId, messageId string)
	OnSendFailed     func(tempId, reason string)
	OnMessageEdited  func(msg entity.Message)
	OnMessageDeleted func(chatId, messageId string)
	OnTyping         func(p protocol.UserTypingPayload)
	OnMessagesRead   func(p protocol.MessagesReadPayload)
	OnReaction       func(p protocol.ReactionPayload, added bool)
	OnStatusChange   func(p protocol.UserStatusPayload)
	OnMention        func(p protocol.MentionPayload)
	OnError          func(message string)
}

// Client maintains one authenticated websocket connection, reconnecting
// with bounded backoff, and reconciles broadcast events into a local Store.
type Client struct {
	cfg      Config
	handlers Handlers
	store    *Store

	connMu sync.Mutex
	conn   *websocket.Conn

	typingMu sync.Mutex
	typing   map[string]*time.Timer

	closeOnce sync.Once
	done      chan struct{}
}

func New(cfg Config, handlers Handlers) *Client {
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = defaultBaseRetryDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = defaultAckTimeout
	}
	if cfg.TypingIdle <= 0 {
		cfg.TypingIdle = defaultTypingIdle
	}
	return &Client{
		cfg:      cfg,
		handlers: handlers,
		store:    NewStore(),
		typing:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
}

// Store exposes the reconciled local state.
func (c *Client) Store() *Store {
	return c.store
}

// Run connects and serves the connection until the context is cancelled,
// Close is called, or the retry budget is exhausted. Room membership is
// connection-scoped, so every successful (re)connect re-runs the full
// join_rooms sequence.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			attempt++
			if attempt > c.cfg.MaxRetries {
				return fmt.Errorf("client: giving up after %d attempts: %w", attempt-1, err)
			}
			delay := time.Duration(attempt) * c.cfg.BaseRetryDelay
			log.Printf("client: connect failed (attempt %d/%d), retrying in %s: %v", attempt, c.cfg.MaxRetries, delay, err)
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			case <-c.done:
				return ErrClosed
			}
		}
		attempt = 0

		c.setConn(conn)
		if err := c.send(protocol.EventJoinRooms, nil); err != nil {
			log.Printf("client: join_rooms failed: %v", err)
		}
		if c.handlers.OnConnect != nil {
			c.handlers.OnConnect()
		}

		readErr := c.readLoop(conn)
		c.setConn(nil)
		if c.handlers.OnDisconnect != nil {
			c.handlers.OnDisconnect(readErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return ErrClosed
		default:
		}
	}
}

// Close tears the connection down and stops the reconnect loop.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.connMu.Unlock()
		c.typingMu.Lock()
		for _, t := range c.typing {
			t.Stop()
		}
		c.typingMu.Unlock()
	})
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.Token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, header)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("client: handshake refused: %w", err)
		}
		return nil, err
	}
	return conn, nil
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env protocol.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("client: malformed frame: %v", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env protocol.Envelope) {
	switch env.Type {
	case protocol.EventNewMessage:
		var p protocol.NewMessagePayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		if !c.store.ApplyMessage(p.Message) {
			return
		}
		if c.handlers.OnNewMessage != nil {
			c.handlers.OnNewMessage(p.Message)
		}

	case protocol.EventMessageSent:
		var p protocol.MessageSentPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		if !c.store.ConfirmPending(p.TempId, p.MessageId) {
			return
		}
		if c.handlers.OnMessageSent != nil {
			c.handlers.OnMessageSent(p.TempId, p.MessageId)
		}

	case protocol.EventMessageEdited:
		var p protocol.MessageEditedPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		c.store.ApplyEdit(p.Message)
		if c.handlers.OnMessageEdited != nil {
			c.handlers.OnMessageEdited(p.Message)
		}

	case protocol.EventMessageDeleted:
		var p protocol.MessageDeletedPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		c.store.ApplyDelete(p.MessageId)
		if c.handlers.OnMessageDeleted != nil {
			c.handlers.OnMessageDeleted(p.ChatId, p.MessageId)
		}

	case protocol.EventUserTyping:
		var p protocol.UserTypingPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		if c.handlers.OnTyping != nil {
			c.handlers.OnTyping(p)
		}

	case protocol.EventMessagesRead:
		var p protocol.MessagesReadPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		c.store.ApplyRead(p.UserId, p.MessageIds, p.ReadAt)
		if c.handlers.OnMessagesRead != nil {
			c.handlers.OnMessagesRead(p)
		}

	case protocol.EventReactionAdded, protocol.EventReactionRemoved:
		var p protocol.ReactionPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		c.store.ApplyReactions(p.MessageId, p.Reactions)
		if c.handlers.OnReaction != nil {
			c.handlers.OnReaction(p, env.Type == protocol.EventReactionAdded)
		}

	case protocol.EventUserStatus:
		var p protocol.UserStatusPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		if c.handlers.OnStatusChange != nil {
			c.handlers.OnStatusChange(p)
		}

	case protocol.EventMention:
		var p protocol.MentionPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		if c.handlers.OnMention != nil {
			c.handlers.OnMention(p)
		}

	case protocol.EventError:
		var p protocol.ErrorPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		if c.handlers.OnError != nil {
			c.handlers.OnError(p.Message)
		}

	default:
		log.Printf("client: unknown event %q", env.Type)
	}
}

func (c *Client) send(eventType protocol.EventType, payload any) error {
	frame, err := protocol.Encode(eventType, payload)
	if err != nil {
		return err
	}
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return errors.New("client: not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// SendMessage inserts an optimistic pending entry and transmits the
// message. The returned tempId identifies the entry until the server echoes
// a persisted id; if no ack arrives within the configured timeout the entry
// transitions to failed.
func (c *Client) SendMessage(chatId, msgType string, content entity.MessageContent, replyTo string) (string, error) {
	tempId := uuid.NewString()
	p := newPendingSend(tempId, chatId, msgType, content)
	c.store.addPending(p)
	p.startTimer(c.cfg.AckTimeout, func() {
		if p.Fail("ack timeout") && c.handlers.OnSendFailed != nil {
			c.handlers.OnSendFailed(tempId, "ack timeout")
		}
	})

	err := c.send(protocol.EventSendMessage, protocol.SendMessageRequest{
		ChatId:  chatId,
		Type:    msgType,
		Content: content,
		ReplyTo: replyTo,
		TempId:  tempId,
	})
	if err != nil {
		if p.Fail(err.Error()) && c.handlers.OnSendFailed != nil {
			c.handlers.OnSendFailed(tempId, err.Error())
		}
		return tempId, err
	}
	return tempId, nil
}

func (c *Client) EditMessage(messageId, text string) error {
	return c.send(protocol.EventEditMessage, protocol.EditMessageRequest{MessageId: messageId, Text: text})
}

func (c *Client) DeleteMessage(messageId string) error {
	return c.send(protocol.EventDeleteMessage, protocol.DeleteMessageRequest{MessageId: messageId})
}

func (c *Client) JoinChat(chatId string) error {
	return c.send(protocol.EventJoinChat, protocol.JoinChatRequest{ChatId: chatId})
}

func (c *Client) LeaveChat(chatId string) error {
	return c.send(protocol.EventLeaveChat, protocol.JoinChatRequest{ChatId: chatId})
}

func (c *Client) MarkRead(chatId string, messageIds []string) error {
	return c.send(protocol.EventMarkRead, protocol.MarkReadRequest{ChatId: chatId, MessageIds: messageIds})
}

func (c *Client) AddReaction(messageId, emoji string) error {
	return c.send(protocol.EventAddReaction, protocol.ReactionRequest{MessageId: messageId, Emoji: emoji})
}

func (c *Client) RemoveReaction(messageId, emoji string) error {
	return c.send(protocol.EventRemoveReaction, protocol.ReactionRequest{MessageId: messageId, Emoji: emoji})
}

func (c *Client) UpdateStatus(status string) error {
	return c.send(protocol.EventUpdateStatus, protocol.UpdateStatusRequest{Status: status})
}

// Typing signals keystroke activity. The first call per chat sends
// typing_start; each call re-arms an idle timer that sends typing_stop once
// the user goes quiet, so callers can invoke this on every keystroke.
func (c *Client) Typing(chatId string) error {
	c.typingMu.Lock()
	timer, active := c.typing[chatId]
	if active {
		timer.Reset(c.cfg.TypingIdle)
		c.typingMu.Unlock()
		return nil
	}
	c.typing[chatId] = time.AfterFunc(c.cfg.TypingIdle, func() {
		c.typingMu.Lock()
		delete(c.typing, chatId)
		c.typingMu.Unlock()
		if err := c.send(protocol.EventTypingStop, protocol.TypingRequest{ChatId: chatId}); err != nil {
			log.Printf("client: typing_stop failed: %v", err)
		}
	})
	c.typingMu.Unlock()
	return c.send(protocol.EventTypingStart, protocol.TypingRequest{ChatId: chatId})
}

// StopTyping cancels the idle timer and sends an explicit typing_stop.
func (c *Client) StopTyping(chatId string) error {
	c.typingMu.Lock()
	timer, active := c.typing[chatId]
	if active {
		timer.Stop()
		delete(c.typing, chatId)
	}
	c.typingMu.Unlock()
	if !active {
		return nil
	}
	return c.send(protocol.EventTypingStop, protocol.TypingRequest{ChatId: chatId})
}
