package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/cache"
	"github.com/dgnsrekt/clipspeak/internal/clipboard"
	"github.com/dgnsrekt/clipspeak/internal/hotkey"
	"github.com/dgnsrekt/clipspeak/internal/speech"
	"github.com/dgnsrekt/clipspeak/internal/speech/engines"
	"github.com/dgnsrekt/clipspeak/internal/text"
	"github.com/dgnsrekt/clipspeak/internal/voice"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds every clipspeak setting.
type Config struct {
	Engine      string
	Voice       string // label, fuzzy label or voice ID; empty picks the first voice
	Rate        RateConfig
	Hotkeys     HotkeyConfig
	Capture     CaptureConfig
	Text        TextConfig
	JoinTimeout time.Duration
	Cache       CacheConfig
	Espeak      EspeakConfig
	Piper       PiperConfig
	Say         SayConfig
	Voices      VoicesConfig
	LogLevel    string
}

// RateConfig is in words per minute.
type RateConfig struct {
	Default int
	Min     int
	Max     int
}

// HotkeyConfig holds bindings such as "f8" and "ctrl+alt+f8".
type HotkeyConfig struct {
	Trigger string
	Stop    string
}

// CaptureConfig controls copying the selection before reading.
type CaptureConfig struct {
	Enabled  bool
	Settle   time.Duration
	KeyGap   time.Duration
	PostCopy time.Duration
}

// TextConfig controls text preparation.
type TextConfig struct {
	StripMarkdown bool
	MaxChars      int
}

// CacheConfig controls the synthesis cache.
type CacheConfig struct {
	Enabled     bool
	Dir         string // empty means the user cache dir
	MemoryMB    int
	DiskMB      int
	Compression int
}

// EspeakConfig configures the espeak engine.
type EspeakConfig struct {
	Binary string
}

// PiperConfig configures the piper engine.
type PiperConfig struct {
	Binary    string
	ModelsDir string
	Model     string
}

// SayConfig configures the macOS say engine.
type SayConfig struct {
	Binary string
}

// VoicesConfig configures voice labelling.
type VoicesConfig struct {
	OverridesFile string
	GermanTokens  []string
	FemaleTokens  []string
}

// Default returns the built-in settings.
func Default() Config {
	timing := clipboard.DefaultTiming()
	rules := voice.DefaultRules()
	return Config{
		Engine: "auto",
		Rate: RateConfig{
			Default: speech.DefaultRate,
			Min:     speech.DefaultMinRate,
			Max:     speech.DefaultMaxRate,
		},
		Hotkeys: HotkeyConfig{
			Trigger: "f8",
			Stop:    "ctrl+alt+f8",
		},
		Capture: CaptureConfig{
			Settle:   timing.Settle,
			KeyGap:   timing.KeyGap,
			PostCopy: timing.PostCopy,
		},
		JoinTimeout: speech.DefaultJoinTimeout,
		Cache: CacheConfig{
			Enabled:     true,
			MemoryMB:    64,
			DiskMB:      512,
			Compression: 3,
		},
		Espeak: EspeakConfig{Binary: "espeak-ng"},
		Piper:  PiperConfig{Binary: "piper"},
		Say:    SayConfig{Binary: "say"},
		Voices: VoicesConfig{
			GermanTokens: rules.Languages[0].Tokens,
			FemaleTokens: rules.FemaleTokens,
		},
		LogLevel: "info",
	}
}

// SetDefaults registers Default with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("engine", d.Engine)
	v.SetDefault("voice", d.Voice)
	v.SetDefault("rate.default", d.Rate.Default)
	v.SetDefault("rate.min", d.Rate.Min)
	v.SetDefault("rate.max", d.Rate.Max)
	v.SetDefault("hotkeys.trigger", d.Hotkeys.Trigger)
	v.SetDefault("hotkeys.stop", d.Hotkeys.Stop)
	v.SetDefault("capture.enabled", d.Capture.Enabled)
	v.SetDefault("capture.settle", d.Capture.Settle.String())
	v.SetDefault("capture.key_gap", d.Capture.KeyGap.String())
	v.SetDefault("capture.post_copy", d.Capture.PostCopy.String())
	v.SetDefault("text.strip_markdown", d.Text.StripMarkdown)
	v.SetDefault("text.max_chars", d.Text.MaxChars)
	v.SetDefault("join_timeout", d.JoinTimeout.String())
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.memory_mb", d.Cache.MemoryMB)
	v.SetDefault("cache.disk_mb", d.Cache.DiskMB)
	v.SetDefault("cache.compression", d.Cache.Compression)
	v.SetDefault("espeak.binary", d.Espeak.Binary)
	v.SetDefault("piper.binary", d.Piper.Binary)
	v.SetDefault("piper.models_dir", d.Piper.ModelsDir)
	v.SetDefault("piper.model", d.Piper.Model)
	v.SetDefault("say.binary", d.Say.Binary)
	v.SetDefault("voices.overrides_file", d.Voices.OverridesFile)
	v.SetDefault("voices.german_tokens", d.Voices.GermanTokens)
	v.SetDefault("voices.female_tokens", d.Voices.FemaleTokens)
	v.SetDefault("log.level", d.LogLevel)
}

// Load reads the settings from v and validates them.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Engine: strings.ToLower(strings.TrimSpace(v.GetString("engine"))),
		Voice:  v.GetString("voice"),
		Rate: RateConfig{
			Default: v.GetInt("rate.default"),
			Min:     v.GetInt("rate.min"),
			Max:     v.GetInt("rate.max"),
		},
		Hotkeys: HotkeyConfig{
			Trigger: v.GetString("hotkeys.trigger"),
			Stop:    v.GetString("hotkeys.stop"),
		},
		Capture: CaptureConfig{
			Enabled:  v.GetBool("capture.enabled"),
			Settle:   v.GetDuration("capture.settle"),
			KeyGap:   v.GetDuration("capture.key_gap"),
			PostCopy: v.GetDuration("capture.post_copy"),
		},
		Text: TextConfig{
			StripMarkdown: v.GetBool("text.strip_markdown"),
			MaxChars:      v.GetInt("text.max_chars"),
		},
		JoinTimeout: v.GetDuration("join_timeout"),
		Cache: CacheConfig{
			Enabled:     v.GetBool("cache.enabled"),
			Dir:         expand(v.GetString("cache.dir")),
			MemoryMB:    v.GetInt("cache.memory_mb"),
			DiskMB:      v.GetInt("cache.disk_mb"),
			Compression: v.GetInt("cache.compression"),
		},
		Espeak: EspeakConfig{Binary: v.GetString("espeak.binary")},
		Piper: PiperConfig{
			Binary:    v.GetString("piper.binary"),
			ModelsDir: expand(v.GetString("piper.models_dir")),
			Model:     expand(v.GetString("piper.model")),
		},
		Say: SayConfig{Binary: v.GetString("say.binary")},
		Voices: VoicesConfig{
			OverridesFile: expand(v.GetString("voices.overrides_file")),
			GermanTokens:  v.GetStringSlice("voices.german_tokens"),
			FemaleTokens:  v.GetStringSlice("voices.female_tokens"),
		},
		LogLevel: strings.ToLower(v.GetString("log.level")),
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	if r := cfg.RateBounds().Clamp(cfg.Rate.Default); r != cfg.Rate.Default {
		log.Warn("rate.default out of range, clamped", "requested", cfg.Rate.Default, "rate", r)
		cfg.Rate.Default = r
	}
	return cfg, nil
}

// Validate checks ranges and parses the hotkeys. An out-of-range
// rate.default is not an error; Load clamps it.
func (c Config) Validate() error {
	var errs []error

	if c.Engine == "" {
		errs = append(errs, errors.New("engine must not be empty"))
	}
	if err := c.RateBounds().Validate(); err != nil {
		errs = append(errs, err)
	}

	if trigger, stop, err := c.Bindings(); err != nil {
		errs = append(errs, err)
	} else if trigger == stop {
		errs = append(errs, fmt.Errorf("hotkeys.trigger and hotkeys.stop are both %s", trigger))
	}

	if c.Capture.Settle < 0 || c.Capture.KeyGap < 0 || c.Capture.PostCopy < 0 {
		errs = append(errs, errors.New("capture timings must not be negative"))
	}
	if c.Text.MaxChars < 0 {
		errs = append(errs, fmt.Errorf("text.max_chars must not be negative, got %d", c.Text.MaxChars))
	}
	if c.JoinTimeout <= 0 {
		errs = append(errs, fmt.Errorf("join_timeout must be positive, got %s", c.JoinTimeout))
	}
	if c.Cache.Enabled {
		if c.Cache.MemoryMB < 1 || c.Cache.DiskMB < 1 {
			errs = append(errs, errors.New("cache sizes must be at least 1 MB"))
		}
		if c.Cache.Compression < 0 || c.Cache.Compression > 22 {
			errs = append(errs, fmt.Errorf("cache.compression must be between 0 and 22, got %d", c.Cache.Compression))
		}
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be debug, info, warn or error", c.LogLevel))
	}

	return errors.Join(errs...)
}

// Bindings parses the trigger and stop hotkeys.
func (c Config) Bindings() (trigger, stop hotkey.Binding, err error) {
	if trigger, err = hotkey.Parse(c.Hotkeys.Trigger); err != nil {
		return trigger, stop, fmt.Errorf("hotkeys.trigger: %w", err)
	}
	if stop, err = hotkey.Parse(c.Hotkeys.Stop); err != nil {
		return trigger, stop, fmt.Errorf("hotkeys.stop: %w", err)
	}
	return trigger, stop, nil
}

// RateBounds returns the configured rate range.
func (c Config) RateBounds() speech.RateBounds {
	return speech.RateBounds{Min: c.Rate.Min, Max: c.Rate.Max}
}

// SessionConfig returns the speech session settings.
func (c Config) SessionConfig() speech.SessionConfig {
	return speech.SessionConfig{
		Bounds:      c.RateBounds(),
		Rate:        c.Rate.Default,
		JoinTimeout: c.JoinTimeout,
	}
}

// Timing returns the capture timings.
func (c Config) Timing() clipboard.Timing {
	return clipboard.Timing{
		Settle:   c.Capture.Settle,
		KeyGap:   c.Capture.KeyGap,
		PostCopy: c.Capture.PostCopy,
	}
}

// TextOptions returns the text preparation options.
func (c Config) TextOptions() text.Options {
	return text.Options{
		StripMarkdown: c.Text.StripMarkdown,
		MaxChars:      c.Text.MaxChars,
	}
}

// CacheConfig returns the synthesis cache settings for dir, which is used
// when cache.dir is empty.
func (c Config) CacheConfig(dir string) cache.Config {
	cc := cache.DefaultConfig()
	cc.MemoryCapacity = int64(c.Cache.MemoryMB) << 20
	cc.DiskCapacity = int64(c.Cache.DiskMB) << 20
	cc.CompressionLevel = c.Cache.Compression
	cc.DiskPath = dir
	if c.Cache.Dir != "" {
		cc.DiskPath = c.Cache.Dir
	}
	return cc
}

// EngineOptions returns per-engine options for the engine registry.
func (c Config) EngineOptions() map[string]map[string]string {
	return map[string]map[string]string{
		"espeak": {engines.OptBinary: c.Espeak.Binary},
		"piper": {
			engines.OptBinary:    c.Piper.Binary,
			engines.OptModelsDir: c.Piper.ModelsDir,
			engines.OptModel:     c.Piper.Model,
		},
		"say": {engines.OptBinary: c.Say.Binary},
	}
}

// Rules returns the voice classification rules with overrides applied.
func (c Config) Rules(overrides map[string]string) voice.Rules {
	r := voice.DefaultRules()
	if len(c.Voices.GermanTokens) > 0 {
		r.Languages = []voice.LanguageRule{{Name: "German", Tokens: c.Voices.GermanTokens}}
	}
	if len(c.Voices.FemaleTokens) > 0 {
		r.FemaleTokens = c.Voices.FemaleTokens
	}
	r.Overrides = overrides
	return r
}

func expand(path string) string {
	if path == "" {
		return ""
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return p
}
