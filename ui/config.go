package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Display names of the hotkeys, such as "F8".
	Trigger string
	Stop    string

	// Engine is shown in the header.
	Engine string

	// RateStep is how far one arrow press moves the rate, in words per
	// minute.
	RateStep int `env:"CLIPSPEAK_RATE_STEP" envDefault:"10"`

	// For debugging the UI
	AltScreen     bool `env:"CLIPSPEAK_ALT_SCREEN"     envDefault:"true"`
	ShowCacheInfo bool `env:"CLIPSPEAK_SHOW_CACHE"     envDefault:"true"`
	ShowFullHelp  bool `env:"CLIPSPEAK_SHOW_FULL_HELP" envDefault:"false"`
}
