package hotkey

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRegistration struct {
	down, up     chan struct{}
	registerErr  error
	registered   bool
	unregistered bool
}

func newFakeRegistration() *fakeRegistration {
	return &fakeRegistration{down: make(chan struct{}, 1), up: make(chan struct{}, 1)}
}

func (f *fakeRegistration) Register() error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = true
	return nil
}

func (f *fakeRegistration) Unregister() error {
	f.unregistered = true
	return nil
}

func (f *fakeRegistration) Keydown() <-chan struct{} { return f.down }
func (f *fakeRegistration) Keyup() <-chan struct{}   { return f.up }

func newFakeService(regs map[string]*fakeRegistration, bindings ...Binding) *Service {
	return NewService(func(b Binding) (Registration, error) {
		return regs[b.String()], nil
	}, bindings...)
}

func receive(t *testing.T, s *Service) Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestService_ForwardsEvents(t *testing.T) {
	trigger, stop := MustParse("f8"), MustParse("ctrl+alt+f8")
	regs := map[string]*fakeRegistration{
		trigger.String(): newFakeRegistration(),
		stop.String():    newFakeRegistration(),
	}
	s := newFakeService(regs, trigger, stop)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	regs[trigger.String()].down <- struct{}{}
	if ev := receive(t, s); ev.Binding != trigger || ev.Type != Down {
		t.Errorf("Expected trigger down, got %+v", ev)
	}
	regs[stop.String()].up <- struct{}{}
	if ev := receive(t, s); ev.Binding != stop || ev.Type != Up {
		t.Errorf("Expected stop up, got %+v", ev)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	for name, r := range regs {
		if !r.unregistered {
			t.Errorf("Expected %s unregistered", name)
		}
	}
	if _, ok := <-s.Events(); ok {
		t.Error("Expected events channel closed")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

func TestService_StartFailureReleases(t *testing.T) {
	trigger, stop := MustParse("f8"), MustParse("ctrl+alt+f8")
	taken := newFakeRegistration()
	taken.registerErr = errors.New("hotkey already taken")
	regs := map[string]*fakeRegistration{
		trigger.String(): newFakeRegistration(),
		stop.String():    taken,
	}
	s := newFakeService(regs, trigger, stop)

	err := s.Start(context.Background())
	if err == nil {
		t.Fatal("Expected Start to fail")
	}
	if !regs[trigger.String()].unregistered {
		t.Error("Expected the first binding to be released")
	}
}

func TestService_StartTwice(t *testing.T) {
	b := MustParse("f9")
	s := newFakeService(map[string]*fakeRegistration{b.String(): newFakeRegistration()}, b)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Close()
	if err := s.Start(context.Background()); err == nil {
		t.Error("Expected second Start to fail")
	}
}

func TestService_RegistrarError(t *testing.T) {
	b := MustParse("f8")
	s := NewService(func(Binding) (Registration, error) {
		return nil, errors.New("no display")
	}, b)
	if err := s.Start(context.Background()); err == nil {
		t.Error("Expected Start to fail when the registrar fails")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
