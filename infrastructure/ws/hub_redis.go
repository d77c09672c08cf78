package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const (
	roomChannelPrefix = "huddle:rooms:"
	allChannel        = "huddle:all"
	presencePrefix    = "huddle:user:"
)

// RedisHub keeps local room membership exactly like MemoryHub and bridges
// broadcasts through Redis pub/sub, so a room's sessions may span server
// processes. Authorization stays local to the admitting process; only
// delivery goes through the bus.
type RedisHub struct {
	mem         *MemoryHub
	redisClient *redis.Client
	pubsub      *redis.PubSub
	serverId    string

	onUnregister func(s *Session)
}

type busEnvelope struct {
	FromServerId string `json:"fromServerId"`
	Room         string `json:"room"`
	Payload      []byte `json:"payload"`
}

func NewRedisHub(redisAddr, serverId string) *RedisHub {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	hub := &RedisHub{
		mem:         NewMemoryHub(),
		redisClient: rdb,
		serverId:    serverId,
	}

	hub.pubsub = rdb.PSubscribe(context.Background(), roomChannelPrefix+"*", allChannel)
	hub.mem.SetOnUnregister(hub.handleUnregister)

	return hub
}

func (h *RedisHub) Run() {
	go h.subscribeLoop()
	h.mem.Run()
}

func (h *RedisHub) subscribeLoop() {
	ch := h.pubsub.Channel()
	log.Printf("[%s] redis subscriber started", h.serverId)

	for msg := range ch {
		var env busEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			log.Printf("unmarshal bus envelope: %v", err)
			continue
		}

		// Locally-originated broadcasts were already delivered.
		if env.FromServerId == h.serverId {
			continue
		}

		if env.Room == "" {
			h.mem.BroadcastAll(env.Payload, "")
		} else {
			h.mem.Broadcast(env.Room, env.Payload, "")
		}
	}
}

func (h *RedisHub) publish(channel, room string, payload []byte) {
	env := busEnvelope{
		FromServerId: h.serverId,
		Room:         room,
		Payload:      payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("marshal bus envelope: %v", err)
		return
	}
	if err := h.redisClient.Publish(context.Background(), channel, data).Err(); err != nil {
		log.Printf("[%s] publish to %s: %v", h.serverId, channel, err)
	}
}

func (h *RedisHub) Register(s *Session) {
	h.mem.Register(s)
	h.redisClient.Set(
		context.Background(),
		presencePrefix+s.UserId+":server",
		h.serverId,
		0,
	)
}

func (h *RedisHub) Unregister(s *Session) {
	h.mem.Unregister(s)
}

func (h *RedisHub) handleUnregister(s *Session) {
	// Only clear the presence key once the user's last local session is gone.
	if h.mem.UserSessionCount(s.UserId) == 0 {
		h.redisClient.Del(
			context.Background(),
			presencePrefix+s.UserId+":server",
		)
	}
	if h.onUnregister != nil {
		h.onUnregister(s)
	}
}

func (h *RedisHub) Join(s *Session, room string) { h.mem.Join(s, room) }

func (h *RedisHub) Leave(s *Session, room string) { h.mem.Leave(s, room) }

func (h *RedisHub) InRoom(s *Session, room string) bool {
	return h.mem.InRoom(s, room)
}

func (h *RedisHub) Broadcast(room string, payload []byte, excludeId string) {
	h.mem.Broadcast(room, payload, excludeId)
	h.publish(roomChannelPrefix+room, room, payload)
}

func (h *RedisHub) BroadcastAll(payload []byte, excludeId string) {
	h.mem.BroadcastAll(payload, excludeId)
	h.publish(allChannel, "", payload)
}

func (h *RedisHub) SessionCount() int {
	return h.mem.SessionCount()
}

func (h *RedisHub) UserSessionCount(userId string) int {
	return h.mem.UserSessionCount(userId)
}

func (h *RedisHub) SetOnUnregister(fn func(s *Session)) {
	h.onUnregister = fn
}
