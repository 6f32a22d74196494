// Package chat fans room messages out to websocket subscribers.
package chat

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// DefaultBuffer is the per-subscriber queue length
const DefaultBuffer = 32

// Subscriber receives the encoded messages published to one room
type Subscriber struct {
	room string
	ch   chan []byte
	once sync.Once
}

// C returns the message stream; it is closed on unsubscribe
func (s *Subscriber) C() <-chan []byte {
	return s.ch
}

// Room returns the room the subscriber listens to
func (s *Subscriber) Room() string {
	return s.room
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Hub is an in-process publish/subscribe registry keyed by room id
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscriber]struct{}
	log   *zap.Logger
}

// NewHub creates an empty hub
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms: make(map[string]map[*Subscriber]struct{}),
		log:   log,
	}
}

// Subscribe registers a listener on roomID
func (h *Hub) Subscribe(roomID string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscriber{room: roomID, ch: make(chan []byte, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[roomID]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.rooms[roomID] = subs
	}
	subs[s] = struct{}{}
	return s
}

// Unsubscribe removes s and closes its stream. Calling it twice is harmless.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	if subs, ok := h.rooms[s.room]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.rooms, s.room)
		}
	}
	h.mu.Unlock()
	s.close()
}

// Publish encodes msg as JSON and queues it for every subscriber of roomID.
// Subscribers whose queue is full miss the message rather than block the sender.
// It returns the number of subscribers that received it.
func (h *Hub) Publish(roomID string, msg interface{}) (int, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for s := range h.rooms[roomID] {
		select {
		case s.ch <- payload:
			delivered++
		default:
			h.log.Warn("Dropping chat message for slow subscriber", zap.String("room_id", roomID))
		}
	}
	return delivered, nil
}

// Subscribers returns the number of listeners on roomID
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Close unsubscribes everyone
func (h *Hub) Close() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]map[*Subscriber]struct{})
	h.mu.Unlock()

	for _, subs := range rooms {
		for s := range subs {
			s.close()
		}
	}
}
