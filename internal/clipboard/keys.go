package clipboard

import (
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/micmonay/keybd_event"
)

// KeySender presses and releases the copy chord.
type KeySender interface {
	Press() error
	Release() error
}

// uinputSettle is how long Linux needs before a new virtual keyboard
// delivers events.
const uinputSettle = 2 * time.Second

type keybdSender struct {
	kb keybd_event.KeyBonding
}

// NewKeySender returns a sender for ctrl+c, or cmd+c on macOS. On Linux it
// blocks while the virtual keyboard is set up.
func NewKeySender() (KeySender, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, err
	}
	if runtime.GOOS == "linux" {
		log.Debug("waiting for virtual keyboard", "delay", uinputSettle)
		time.Sleep(uinputSettle)
	}
	kb.SetKeys(keybd_event.VK_C)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	return &keybdSender{kb: kb}, nil
}

func (k *keybdSender) Press() error   { return k.kb.Press() }
func (k *keybdSender) Release() error { return k.kb.Release() }

// KeyEvent is one call recorded by RecordingKeys.
type KeyEvent struct {
	Pressed bool
	At      time.Time
}

// RecordingKeys records presses and releases instead of sending them.
// OnPress, if set, runs on each press; tests use it to put the "selected"
// text on a Memory clipboard.
type RecordingKeys struct {
	OnPress func()
	Err     error

	mu     sync.Mutex
	events []KeyEvent
}

func (r *RecordingKeys) Press() error {
	r.record(true)
	if r.Err != nil {
		return r.Err
	}
	if r.OnPress != nil {
		r.OnPress()
	}
	return nil
}

func (r *RecordingKeys) Release() error {
	r.record(false)
	return r.Err
}

// Events returns the recorded calls in order.
func (r *RecordingKeys) Events() []KeyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]KeyEvent(nil), r.events...)
}

func (r *RecordingKeys) record(pressed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, KeyEvent{Pressed: pressed, At: time.Now()})
}
