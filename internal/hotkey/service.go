package hotkey

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// EventType distinguishes key-down from key-up.
type EventType int

const (
	Down EventType = iota
	Up
)

func (t EventType) String() string {
	if t == Up {
		return "up"
	}
	return "down"
}

// Event is one press or release of a registered binding.
type Event struct {
	Binding Binding
	Type    EventType
}

// Registration is one global key grab. Keydown and Keyup deliver a value
// per press and release once Register has succeeded.
type Registration interface {
	Register() error
	Unregister() error
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Registrar creates the platform grab for a binding. The system
// implementation lives in internal/hotkey/system.
type Registrar func(Binding) (Registration, error)

// Service registers bindings globally and forwards their events.
type Service struct {
	bindings []Binding
	events   chan Event
	register Registrar

	mu     sync.Mutex
	active []Registration
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewService creates a service that grabs bindings through register.
// Nothing is registered until Start.
func NewService(register Registrar, bindings ...Binding) *Service {
	return &Service{
		bindings: bindings,
		events:   make(chan Event, 16),
		register: register,
	}
}

// Events delivers key events until Close.
func (s *Service) Events() <-chan Event {
	return s.events
}

// Start registers every binding. On failure the bindings registered so far
// are released again.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("hotkey service closed")
	}
	if s.cancel != nil {
		return errors.New("hotkey service already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	var active []Registration
	for _, b := range s.bindings {
		r, err := s.register(b)
		if err == nil {
			err = r.Register()
		}
		if err != nil {
			cancel()
			for _, prev := range active {
				_ = prev.Unregister()
			}
			return fmt.Errorf("register hotkey %s: %w", b, err)
		}
		log.Debug("hotkey registered", "binding", b)
		active = append(active, r)
	}

	s.active = active
	s.cancel = cancel
	for i, r := range active {
		s.wg.Add(1)
		go s.forward(ctx, s.bindings[i], r)
	}
	return nil
}

func (s *Service) forward(ctx context.Context, b Binding, r Registration) {
	defer s.wg.Done()
	down, up := r.Keydown(), r.Keyup()
	for {
		var ev Event
		select {
		case <-ctx.Done():
			return
		case <-down:
			ev = Event{Binding: b, Type: Down}
		case <-up:
			ev = Event{Binding: b, Type: Up}
		}
		select {
		case s.events <- ev:
		default:
			log.Debug("hotkey event dropped", "binding", b, "type", ev.Type)
		}
	}
}

// Close unregisters every binding and closes Events.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	var errs []error
	for _, r := range active {
		errs = append(errs, r.Unregister())
	}
	close(s.events)
	return errors.Join(errs...)
}
