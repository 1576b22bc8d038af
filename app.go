package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/audio"
	"github.com/dgnsrekt/clipspeak/internal/cache"
	"github.com/dgnsrekt/clipspeak/internal/clipboard"
	"github.com/dgnsrekt/clipspeak/internal/config"
	"github.com/dgnsrekt/clipspeak/internal/hotkey"
	"github.com/dgnsrekt/clipspeak/internal/hotkey/system"
	"github.com/dgnsrekt/clipspeak/internal/playback"
	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/speech/engines"
	"github.com/dgnsrekt/clipspeak/internal/voice"
	gap "github.com/muesli/go-app-paths"
)

// app holds everything a clipspeak run needs, wired together.
type app struct {
	cfg     config.Config
	cache   *cache.Manager
	engine  speech.Engine
	voices  []voice.Descriptor
	rules   voice.Rules
	catalog *voice.Catalog
	ctrl    *playback.Controller
	trigger hotkey.Binding
	stop    hotkey.Binding
}

// openDevice opens the shared audio output.
func openDevice() (audio.Device, error) {
	p, err := audio.NewPlayer(audio.DefaultPlayerConfig())
	if err != nil {
		return nil, err
	}
	return p, nil
}

func defaultCacheDir() string {
	dir, err := gap.NewScope(gap.User, "clipspeak").CacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "audio")
}

// newApp builds the engine, voice catalog, session, clipboard bridge and
// controller. An engine that fails to start is replaced by one that reports
// the failure on every read, so the settings screen still comes up.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	trigger, stop, err := cfg.Bindings()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, trigger: trigger, stop: stop}

	if cfg.Cache.Enabled {
		if dir := cfg.CacheConfig(defaultCacheDir()).DiskPath; dir != "" {
			a.cache, err = cache.NewManager(cfg.CacheConfig(dir))
			if err != nil {
				log.Warn("synthesis cache disabled", "err", err)
				a.cache = nil
			}
		}
	}

	registry := engines.NewRegistry(engines.Deps{
		Device:  engines.OnceDevice(openDevice),
		Cache:   a.cache,
		Options: cfg.EngineOptions(),
	})
	a.engine, err = registry.Create(cfg.Engine, cfg.EngineOptions()[cfg.Engine])
	if errors.Is(err, speech.ErrUnknownEngine) {
		a.closeCache()
		return nil, err
	}
	if err != nil {
		log.Error("speech engine failed to start", "engine", cfg.Engine, "err", err)
		a.engine = engines.Null{Err: err}
	}

	voices, err := a.engine.Voices(ctx)
	if err != nil {
		log.Error("unable to list voices", "engine", a.engine.Name(), "err", err)
		voices = nil
	}
	for _, v := range voices {
		log.Debug("voice", "id", v.ID, "name", v.Name, "languages", v.Languages, "gender", v.Gender)
	}

	overrides, err := config.LoadOverrides(cfg.Voices.OverridesFile)
	if err != nil {
		log.Warn("ignoring voice overrides", "err", err)
	}
	a.voices = voices
	a.rules = cfg.Rules(overrides)
	a.catalog = a.rules.Load(voices)

	session, err := speech.NewSession(a.engine, cfg.SessionConfig())
	if err != nil {
		a.closeCache()
		_ = a.engine.Close()
		return nil, fmt.Errorf("unable to start speech session: %w", err)
	}

	pc := playback.DefaultConfig()
	pc.Trigger = trigger
	pc.Stop = stop
	pc.Capture = cfg.Capture.Enabled
	pc.Text = cfg.TextOptions()
	a.ctrl, err = playback.New(session, newBridge(cfg), a.catalog, pc)
	if err != nil {
		a.closeCache()
		_ = session.Close()
		return nil, err
	}

	a.selectVoice(cfg.Voice)
	return a, nil
}

func newBridge(cfg config.Config) *clipboard.Bridge {
	opts := []clipboard.Option{
		clipboard.WithFocuser(clipboard.SystemFocus()),
		clipboard.WithTiming(cfg.Timing()),
	}
	if cfg.Capture.Enabled {
		keys, err := clipboard.NewKeySender()
		if err != nil {
			log.Warn("selection capture disabled", "err", err)
		} else {
			opts = append(opts, clipboard.WithKeySender(keys))
		}
	}
	return clipboard.New(clipboard.System{}, opts...)
}

// selectVoice picks the configured voice, falling back to the first one.
func (a *app) selectVoice(query string) {
	catalog := a.ctrl.Catalog()
	label, ok := catalog.Find(query)
	if query != "" && !ok {
		log.Warn("configured voice not found", "voice", query)
	}
	if !ok {
		labels := catalog.Labels()
		if len(labels) == 0 {
			return
		}
		label = labels[0]
	}
	a.ctrl.OnLanguageChanged(label)
}

// reloadVoices rebuilds the catalog with new overrides.
func (a *app) reloadVoices(ctx context.Context, overrides map[string]string) {
	voices, err := a.engine.Voices(ctx)
	if err != nil {
		log.Warn("unable to list voices", "err", err)
		return
	}
	a.ctrl.SetCatalog(a.cfg.Rules(overrides).Load(voices))
}

// watchVoices reloads the catalog whenever the overrides file changes.
// changed, if not nil, runs after each reload.
func (a *app) watchVoices(ctx context.Context, changed func()) {
	path := a.cfg.Voices.OverridesFile
	if path == "" {
		return
	}
	err := config.WatchOverrides(ctx, path, func(overrides map[string]string) {
		a.reloadVoices(ctx, overrides)
		if changed != nil {
			changed()
		}
	})
	if err != nil {
		log.Warn("voice overrides will not reload", "err", err)
	}
}

// startHotkeys registers the global hotkeys and feeds them to the
// controller. The returned service must be closed. On Linux this is the
// first point that needs an X11 display.
func (a *app) startHotkeys(ctx context.Context) (*hotkey.Service, error) {
	svc := hotkey.NewService(system.Register, a.trigger, a.stop)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("unable to register hotkeys: %w", err)
	}
	go a.ctrl.Run(ctx, svc.Events())
	log.Info("hotkeys registered", "trigger", a.trigger, "stop", a.stop)
	return svc, nil
}

func (a *app) cacheStats() cache.ManagerStats {
	return a.cache.Stats()
}

func (a *app) closeCache() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Close(); err != nil {
		log.Warn("unable to close cache", "err", err)
	}
}

// close stops speech and releases the engine and cache.
func (a *app) close() error {
	err := a.ctrl.Close()
	a.closeCache()
	return err
}
