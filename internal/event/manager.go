package event

import (
	"go.uber.org/zap"
	"sync"
)

const listenerBuffer = 256

type Manager struct {
	mu        sync.RWMutex
	listeners []*Listener
	running   sync.WaitGroup
}

type Listener struct {
	eventTypes []Type
	channel    chan envelope
}

type envelope struct {
	eventType Type
	msg       interface{}
}

func (l *Listener) wants(eventType Type) bool {
	for _, t := range l.eventTypes {
		if t == eventType {
			return true
		}
	}

	return false
}

func NewManager() *Manager {
	return &Manager{listeners: make([]*Listener, 0)}
}

// Subscribe delivers every event of the given types to callback on one dedicated
// goroutine, in emission order across all of those types.
func (m *Manager) Subscribe(callback func(eventType Type, msg interface{}), eventTypes ...Type) {
	for _, t := range eventTypes {
		zap.L().With(zap.String("type", string(t))).Debug("EventManager: AddListener")
	}

	listener := &Listener{
		eventTypes: eventTypes,
		channel:    make(chan envelope, listenerBuffer),
	}

	m.mu.Lock()
	m.listeners = append(m.listeners, listener)
	m.running.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.running.Done()
		for e := range listener.channel {
			callback(e.eventType, e.msg)
		}
	}()
}

// EmitEvent queues msg for every listener of eventType. Events are never dropped:
// when a listener already has listenerBuffer events waiting, EmitEvent blocks until
// it catches up. Publishers emit after commit, outside any transaction lock.
func (m *Manager) EmitEvent(eventType Type, msg interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.listeners) == 0 {
		zap.L().Debug("No event listeners available")
	}
	for _, listener := range m.listeners {
		if listener.wants(eventType) {
			zap.L().With(zap.String("type", string(eventType))).Debug("EventManager: Emitting event")
			listener.channel <- envelope{eventType, msg}
		}
	}
}

// Close stops every listener and returns once their pending events are delivered.
func (m *Manager) Close() {
	m.mu.Lock()
	for _, listener := range m.listeners {
		close(listener.channel)
	}
	m.listeners = nil
	m.mu.Unlock()

	m.running.Wait()
}
