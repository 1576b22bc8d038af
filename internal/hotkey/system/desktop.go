//go:build darwin || windows

package system

import (
	"fmt"
	"sync"

	"github.com/dgnsrekt/clipspeak/internal/hotkey"
	xhotkey "golang.design/x/hotkey"
)

type desktopRegistration struct {
	hk       *xhotkey.Hotkey
	down, up chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Register prepares a grab for b. On macOS the caller must run the main
// loop through mainthread.Init.
func Register(b hotkey.Binding) (hotkey.Registration, error) {
	key, ok := keyCode(b.Key)
	if !ok {
		return nil, fmt.Errorf("%w %q: no key code", hotkey.ErrInvalidBinding, b)
	}
	return &desktopRegistration{
		hk:   xhotkey.New(platformMods(b.Mods), key),
		down: make(chan struct{}, 1),
		up:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}, nil
}

func (r *desktopRegistration) Register() error {
	if err := r.hk.Register(); err != nil {
		return err
	}
	go r.forward(r.hk.Keydown(), r.hk.Keyup())
	return nil
}

func (r *desktopRegistration) forward(down, up <-chan xhotkey.Event) {
	for {
		select {
		case <-r.done:
			return
		case _, ok := <-down:
			if !ok {
				return
			}
			notify(r.down)
		case _, ok := <-up:
			if !ok {
				return
			}
			notify(r.up)
		}
	}
}

func (r *desktopRegistration) Unregister() error {
	r.once.Do(func() { close(r.done) })
	return r.hk.Unregister()
}

func (r *desktopRegistration) Keydown() <-chan struct{} { return r.down }
func (r *desktopRegistration) Keyup() <-chan struct{}   { return r.up }
