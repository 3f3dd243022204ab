package sse

import (
	"encoding/json"
	"sync"
	"time"

	"mailtriage/internal/logger"
)

// clientBuffer is the number of events queued per connection before new
// events are dropped for that connection.
const clientBuffer = 16

// Event is the JSON payload written to every open connection.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	Time int64       `json:"time"`
}

// SSEManager fans table change events out to every open dashboard.
type SSEManager struct {
	clients    map[chan []byte]struct{}
	clientsMux sync.RWMutex
	closed     bool

	logger *logger.Logger
	now    func() time.Time
}

func NewSSEManager(logger *logger.Logger) *SSEManager {
	return &SSEManager{
		clients: make(map[chan []byte]struct{}),
		logger:  logger,
		now:     time.Now,
	}
}

// AddClient registers a connection. The returned channel is closed by
// RemoveClient or Close.
func (s *SSEManager) AddClient() chan []byte {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	channel := make(chan []byte, clientBuffer)
	if s.closed {
		close(channel)
		return channel
	}
	s.clients[channel] = struct{}{}

	s.logger.Debugf("added SSE client, total clients: %d", len(s.clients))
	return channel
}

func (s *SSEManager) RemoveClient(channel chan []byte) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if _, ok := s.clients[channel]; !ok {
		return
	}
	delete(s.clients, channel)
	close(channel)

	s.logger.Debugf("removed SSE client, remaining clients: %d", len(s.clients))
}

// Broadcast sends an event to all connections. Slow connections whose buffer
// is full miss the event rather than blocking the caller.
func (s *SSEManager) Broadcast(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Time: s.now().Unix()})
	if err != nil {
		s.logger.Errorf("failed to marshal %s event: %v", eventType, err)
		return
	}

	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	for channel := range s.clients {
		select {
		case channel <- payload:
		default:
			s.logger.Warnf("SSE client buffer full, dropping %s event", eventType)
		}
	}
}

func (s *SSEManager) ClientCount() int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	return len(s.clients)
}

// Close disconnects every client. Later AddClient calls get a closed channel.
func (s *SSEManager) Close() {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	for channel := range s.clients {
		close(channel)
		delete(s.clients, channel)
	}
	s.closed = true
}
