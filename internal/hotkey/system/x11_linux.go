package system

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/hotkey"
)

var display struct {
	once sync.Once
	xu   *xgbutil.XUtil
	err  error
}

// connect opens the shared X11 connection and starts its event loop.
func connect() (*xgbutil.XUtil, error) {
	display.once.Do(func() {
		xu, err := xgbutil.NewConn()
		if err != nil {
			display.err = fmt.Errorf("open X11 display: %w", err)
			return
		}
		keybind.Initialize(xu)
		display.xu = xu
		go xevent.Main(xu)
		log.Debug("X11 hotkey connection opened")
	})
	return display.xu, display.err
}

type x11Registration struct {
	binding  hotkey.Binding
	keys     string
	xu       *xgbutil.XUtil
	down, up chan struct{}
	active   atomic.Bool
}

// Register grabs b on the X11 root window.
func Register(b hotkey.Binding) (hotkey.Registration, error) {
	keys, err := keyString(b)
	if err != nil {
		return nil, err
	}
	xu, err := connect()
	if err != nil {
		return nil, err
	}
	return &x11Registration{
		binding: b,
		keys:    keys,
		xu:      xu,
		down:    make(chan struct{}, 1),
		up:      make(chan struct{}, 1),
	}, nil
}

func (r *x11Registration) Register() error {
	root := r.xu.RootWin()
	press := keybind.KeyPressFun(func(*xgbutil.XUtil, xevent.KeyPressEvent) {
		if r.active.Load() {
			notify(r.down)
		}
	})
	if err := press.Connect(r.xu, root, r.keys, true); err != nil {
		return fmt.Errorf("grab %s: %w", r.keys, err)
	}
	release := keybind.KeyReleaseFun(func(*xgbutil.XUtil, xevent.KeyReleaseEvent) {
		if r.active.Load() {
			notify(r.up)
		}
	})
	if err := release.Connect(r.xu, root, r.keys, false); err != nil {
		r.ungrab()
		return fmt.Errorf("grab %s: %w", r.keys, err)
	}
	r.active.Store(true)
	return nil
}

// Unregister releases the grab. The callbacks stay attached but ignore
// further events.
func (r *x11Registration) Unregister() error {
	r.active.Store(false)
	r.ungrab()
	return nil
}

func (r *x11Registration) ungrab() {
	mods, codes, err := keybind.ParseString(r.xu, r.keys)
	if err != nil {
		return
	}
	for _, code := range codes {
		keybind.Ungrab(r.xu, r.xu.RootWin(), mods, code)
	}
}

func (r *x11Registration) Keydown() <-chan struct{} { return r.down }
func (r *x11Registration) Keyup() <-chan struct{}   { return r.up }
