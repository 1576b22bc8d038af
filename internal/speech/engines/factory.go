package engines

import (
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/audio"
	"github.com/dgnsrekt/clipspeak/internal/cache"
	"github.com/dgnsrekt/clipspeak/internal/speech"
)

// Option keys understood by the registered factories.
const (
	OptBinary    = "binary"
	OptModelsDir = "models_dir"
	OptModel     = "model"
)

// Deps are the shared resources engine factories draw on.
type Deps struct {
	// Device opens the audio device. Only PCM engines call it.
	Device func() (audio.Device, error)
	// Cache may be nil.
	Cache *cache.Manager
	// Options holds per-engine options keyed by engine name.
	Options map[string]map[string]string
}

// OnceDevice wraps open so the device is opened at most once.
func OnceDevice(open func() (audio.Device, error)) func() (audio.Device, error) {
	var (
		once sync.Once
		dev  audio.Device
		err  error
	)
	return func() (audio.Device, error) {
		once.Do(func() { dev, err = open() })
		return dev, err
	}
}

// NewRegistry returns a registry with every engine registered, plus "auto",
// which picks the best engine for this platform.
func NewRegistry(deps Deps) *speech.Registry {
	r := speech.NewRegistry()

	r.Register("mock", func(map[string]string) (speech.Engine, error) {
		return NewMock(DefaultMockVoices()...), nil
	})
	r.Register("sapi", func(map[string]string) (speech.Engine, error) {
		return NewSAPI()
	})
	r.Register("say", func(o map[string]string) (speech.Engine, error) {
		return NewSay(o[OptBinary])
	})
	r.Register("espeak", func(o map[string]string) (speech.Engine, error) {
		dev, err := deps.Device()
		if err != nil {
			return nil, speech.NewEngineError("espeak", speech.ErrorCodeInit, "no audio device", err)
		}
		return NewEspeak(EspeakConfig{Binary: o[OptBinary]}, dev, deps.Cache)
	})
	r.Register("piper", func(o map[string]string) (speech.Engine, error) {
		dev, err := deps.Device()
		if err != nil {
			return nil, speech.NewEngineError("piper", speech.ErrorCodeInit, "no audio device", err)
		}
		return NewPiper(PiperConfig{Binary: o[OptBinary], ModelsDir: o[OptModelsDir], Model: o[OptModel]}, dev, deps.Cache)
	})
	r.Register("auto", func(map[string]string) (speech.Engine, error) {
		var found []speech.Engine
		for _, name := range platformEngines(runtime.GOOS) {
			e, err := r.Create(name, deps.Options[name])
			if err != nil {
				log.Debug("engine not available", "engine", name, "err", err)
				continue
			}
			found = append(found, e)
			if len(found) == 2 {
				break
			}
		}
		switch len(found) {
		case 0:
			return nil, speech.NewEngineError("auto", speech.ErrorCodeInit, "no speech engine found", speech.ErrEngineUnavailable)
		case 1:
			return found[0], nil
		default:
			return NewFallback(found[0], found[1], 3), nil
		}
	})

	return r
}

// platformEngines lists engines to try, best first.
func platformEngines(goos string) []string {
	switch goos {
	case "windows":
		return []string{"sapi", "espeak", "piper"}
	case "darwin":
		return []string{"say", "piper", "espeak"}
	default:
		return []string{"piper", "espeak"}
	}
}
