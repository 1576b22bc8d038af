package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/clipboard"
	"github.com/dgnsrekt/clipspeak/internal/hotkey"
	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/text"
	"github.com/dgnsrekt/clipspeak/internal/voice"
	"golang.org/x/time/rate"
)

var (
	// ErrBusy is returned by Speak when speech is already in progress.
	ErrBusy = errors.New("speech already in progress")

	errAbandoned = errors.New("stopped before speech started")
)

// Clipboard is the clipboard access the controller needs.
type Clipboard interface {
	Read() string
	Foreground() clipboard.Window
	CaptureSelection(ctx context.Context, previous clipboard.Window) string
}

// Config configures a Controller.
type Config struct {
	Trigger hotkey.Binding
	Stop    hotkey.Binding

	// Capture copies the current selection before reading the clipboard.
	Capture bool

	Text text.Options

	// TriggerInterval is the shortest time between two accepted triggers.
	TriggerInterval time.Duration

	// StatusBuffer is the capacity of the status channel.
	StatusBuffer int
}

// DefaultConfig returns F8 to read, ctrl+alt+f8 to stop, no capture.
func DefaultConfig() Config {
	return Config{
		Trigger:         hotkey.MustParse("f8"),
		Stop:            hotkey.MustParse("ctrl+alt+f8"),
		Text:            text.DefaultOptions(),
		TriggerInterval: 250 * time.Millisecond,
		StatusBuffer:    16,
	}
}

// Controller runs the read-aloud state machine. Triggers are ignored
// unless it is Idle.
type Controller struct {
	session *speech.Session
	clip    Clipboard
	config  Config
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	machine *stateMachine
	catalog *voice.Catalog
	label   string
	current string // utterance in flight
	attempt uint64 // bumped by every accepted trigger and every stop
	early   *speech.Result

	statusMu sync.Mutex
	statuses chan Status
	closed   bool
}

// New creates a controller. It takes ownership of session and posts the
// ready status.
func New(session *speech.Session, clip Clipboard, catalog *voice.Catalog, config Config) (*Controller, error) {
	if session == nil {
		return nil, errors.New("session cannot be nil")
	}
	if clip == nil {
		return nil, errors.New("clipboard cannot be nil")
	}
	if config.Trigger.IsZero() || config.Stop.IsZero() {
		return nil, fmt.Errorf("%w: trigger and stop keys are required", hotkey.ErrInvalidBinding)
	}
	if config.Trigger == config.Stop {
		return nil, fmt.Errorf("%w: trigger and stop keys must differ", hotkey.ErrInvalidBinding)
	}
	if config.StatusBuffer <= 0 {
		config.StatusBuffer = DefaultConfig().StatusBuffer
	}
	if catalog == nil {
		catalog = voice.Load(nil)
	}

	limit := rate.Inf
	if config.TriggerInterval > 0 {
		limit = rate.Every(config.TriggerInterval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		session:  session,
		clip:     clip,
		config:   config,
		limiter:  rate.NewLimiter(limit, 1),
		ctx:      ctx,
		cancel:   cancel,
		machine:  newStateMachine(),
		catalog:  catalog,
		statuses: make(chan Status, config.StatusBuffer),
	}
	c.post(KindReady, c.readyText(), "", Idle)
	return c, nil
}

// Statuses delivers status updates. When the reader falls behind the
// oldest update is dropped. The channel is closed by Close.
func (c *Controller) Statuses() <-chan Status {
	return c.statuses
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.current
}

// Session returns the speech session.
func (c *Controller) Session() *speech.Session {
	return c.session
}

// Catalog returns the voice catalog in use.
func (c *Controller) Catalog() *voice.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

// Selected returns the label of the chosen voice, or "".
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.label
}

// SetCatalog replaces the catalog, reselecting the current voice by ID
// when it still has a label, and the first entry otherwise.
func (c *Controller) SetCatalog(catalog *voice.Catalog) {
	c.mu.Lock()
	var id string
	if d, ok := c.catalog.Lookup(c.label); ok {
		id = d.ID
	}
	c.catalog = catalog
	c.mu.Unlock()

	label, ok := catalog.LabelOf(id)
	if !ok {
		labels := catalog.Labels()
		if len(labels) == 0 {
			return
		}
		label = labels[0]
	}
	c.OnLanguageChanged(label)
}

// HandleHotkey dispatches a key-down of the trigger or stop binding.
// Key-up events and unknown bindings are ignored.
func (c *Controller) HandleHotkey(ev hotkey.Event) {
	if ev.Type != hotkey.Down {
		return
	}
	switch ev.Binding {
	case c.config.Stop:
		c.OnStopRequested()
	case c.config.Trigger:
		c.OnTriggerPressed(c.ctx)
	}
}

// Run handles hotkey events until events closes or ctx ends. Triggers run
// on their own goroutine so a stop key is seen during capture.
func (c *Controller) Run(ctx context.Context, events <-chan hotkey.Event) {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.HandleHotkey(ev)
			}()
		}
	}
}

// OnTriggerPressed reads the clipboard, capturing the selection first when
// enabled, and speaks it. It reports whether the trigger was accepted by
// the guard, even if the clipboard then turned out empty.
func (c *Controller) OnTriggerPressed(ctx context.Context) bool {
	if !c.limiter.Allow() {
		log.Debug("trigger throttled")
		return false
	}
	attempt, ok := c.acquire()
	if !ok {
		return false
	}
	log.Debug("trigger accepted", "capture", c.config.Capture)

	var raw string
	if c.config.Capture {
		raw = c.clip.CaptureSelection(ctx, c.clip.Foreground())
	} else {
		raw = c.clip.Read()
	}
	if err := c.begin(attempt, raw); err != nil {
		log.Debug("trigger produced no speech", "err", err)
	}
	return true
}

// Speak speaks s directly through the same guard as the trigger. It
// returns ErrBusy unless Idle, and speech.ErrEmptyText when s holds
// nothing speakable. It does not wait for speech to finish.
func (c *Controller) Speak(ctx context.Context, s string) error {
	attempt, ok := c.acquire()
	if !ok {
		return ErrBusy
	}
	return c.begin(attempt, s)
}

// OnTestClicked stops any speech and speaks TestSentence.
func (c *Controller) OnTestClicked(ctx context.Context) error {
	c.OnStopRequested()
	return c.Speak(ctx, TestSentence)
}

// OnStopRequested stops speech in progress. It reports whether anything
// was stopped.
func (c *Controller) OnStopRequested() bool {
	c.mu.Lock()
	state := c.machine.current
	if state != Processing && state != Speaking {
		c.mu.Unlock()
		return false
	}
	c.machine.transition(Stopping)
	c.current = ""
	c.attempt++
	c.mu.Unlock()

	log.Debug("stop requested", "state", state)
	if !c.session.Stop() {
		log.Warn("speech did not stop within the join timeout")
	}

	c.mu.Lock()
	c.machine.transition(Idle)
	c.mu.Unlock()
	c.post(KindStopped, stoppedText, "", Idle)
	return true
}

// OnLanguageChanged selects the voice with label. It reports false for an
// unknown label. The fallback entry is accepted but changes nothing.
func (c *Controller) OnLanguageChanged(label string) bool {
	c.mu.Lock()
	catalog := c.catalog
	c.mu.Unlock()

	d, ok := catalog.Lookup(label)
	if !ok && !catalog.Has(label) {
		log.Debug("unknown voice label", "label", label)
		return false
	}

	c.mu.Lock()
	c.label = label
	c.mu.Unlock()
	if ok {
		c.session.SetVoice(&d)
		log.Debug("voice selected", "label", label, "id", d.ID)
	}
	return true
}

// OnSpeedChanged sets the speech rate and returns it after clamping.
func (c *Controller) OnSpeedChanged(wpm int) int {
	r := c.session.SetRate(wpm)
	log.Debug("rate changed", "requested", wpm, "rate", r)
	return r
}

// Close stops speech, closes the session and closes Statuses.
func (c *Controller) Close() error {
	c.statusMu.Lock()
	if c.closed {
		c.statusMu.Unlock()
		return nil
	}
	c.closed = true
	close(c.statuses)
	c.statusMu.Unlock()

	c.cancel()
	return c.session.Close()
}

// acquire moves Idle to Processing.
func (c *Controller) acquire() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed() || c.machine.current != Idle {
		log.Debug("trigger ignored", "state", c.machine.current)
		return 0, false
	}
	c.machine.transition(Processing)
	c.attempt++
	c.early = nil
	return c.attempt, true
}

// begin prepares raw and starts speaking it, unless the attempt was
// stopped in the meantime. The lock is released while the session starts,
// since that can wait for a previous worker.
func (c *Controller) begin(attempt uint64, raw string) error {
	prepared := text.Prepare(raw, c.config.Text)

	c.mu.Lock()
	if c.attempt != attempt || c.machine.current != Processing {
		c.mu.Unlock()
		return errAbandoned
	}
	if prepared == "" {
		c.machine.transition(Idle)
		c.mu.Unlock()
		c.post(KindEmpty, emptyText, "", Idle)
		return speech.ErrEmptyText
	}
	c.mu.Unlock()

	log.Debug("reading text", "chars", len([]rune(prepared)), "preview", text.Preview(prepared))
	id, err := c.session.Start(c.ctx, prepared, func(res speech.Result) {
		c.finished(attempt, res)
	})

	c.mu.Lock()
	if c.attempt != attempt || c.machine.current != Processing {
		c.mu.Unlock()
		if err == nil {
			c.session.StopUtterance(id)
		}
		return errAbandoned
	}
	if err != nil {
		c.machine.transition(Idle)
		c.mu.Unlock()
		c.post(KindError, errorText(err), "", Idle)
		return err
	}
	c.machine.transition(Speaking)
	c.current = id
	// Posted before unlocking so it cannot trail the utterance's own status.
	c.post(KindReading, readingText, id, Speaking)
	early := c.early
	c.early = nil
	c.mu.Unlock()

	if early != nil {
		c.finished(attempt, *early)
	}
	return nil
}

// finished runs on the speech worker when an utterance ends. A result that
// arrives before begin has recorded the utterance is kept for begin.
func (c *Controller) finished(attempt uint64, res speech.Result) {
	c.mu.Lock()
	if c.attempt != attempt {
		c.mu.Unlock()
		return
	}
	switch c.machine.current {
	case Processing:
		c.early = &res
		c.mu.Unlock()
		return
	case Speaking:
		if res.UtteranceID != c.current {
			c.mu.Unlock()
			return
		}
	default:
		c.mu.Unlock()
		return
	}
	c.current = ""
	c.machine.transition(Idle)
	c.mu.Unlock()

	switch {
	case res.Err == nil, errors.Is(res.Err, speech.ErrStopped):
		c.post(KindReady, c.readyText(), res.UtteranceID, Idle)
	case errors.Is(res.Err, context.Canceled):
	default:
		log.Error("speech failed", "utterance", res.UtteranceID, "err", res.Err)
		c.post(KindError, errorText(res.Err), res.UtteranceID, Idle)
	}
}

func (c *Controller) readyText() string {
	return ReadyText(c.config.Trigger.Display())
}

func (c *Controller) isClosed() bool {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.closed
}

// post sends a status without blocking, dropping the oldest queued one
// when the channel is full.
func (c *Controller) post(kind Kind, msg, id string, state State) {
	s := Status{Kind: kind, Text: msg, State: state, UtteranceID: id, Time: time.Now()}

	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.statuses <- s:
			return
		default:
		}
		select {
		case <-c.statuses:
		default:
		}
	}
}
