// Package main provides the entry point for the clipspeak CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/clipspeak/internal/config"
	"github.com/dgnsrekt/clipspeak/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.design/x/hotkey/mainthread"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	headless   bool
	debug      bool
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "clipspeak",
		Short: "Read the clipboard aloud with a hotkey",
		Long: paragraph(
			fmt.Sprintf("\nRead the clipboard aloud, %s. Press the trigger key anywhere to hear the copied text; press the stop key to cut it short.", keyword("with a single keypress")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		RunE:             execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	// editing or documenting a broken config must still work
	if cmd == configCmd || cmd == manCmd {
		return nil
	}

	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	debug = viper.GetBool("debug")
	var err error
	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		return err //nolint:wrapcheck
	}
	setLogLevel(cfg.LogLevel, debug)

	// Without a terminal there is nothing to draw the settings screen on.
	if !cmd.Flags().Changed("headless") && !term.IsTerminal(int(os.Stdout.Fd())) {
		headless = true
	}
	return nil
}

func execute(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			log.Warn("shutdown", "err", err)
		}
	}()

	svc, err := a.startHotkeys(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if headless {
		return runHeadless(ctx, a)
	}
	return runTUI(ctx, a)
}

func runHeadless(ctx context.Context, a *app) error {
	a.watchVoices(ctx, nil)
	fmt.Println(paragraph(fmt.Sprintf("Listening. Press %s to read the clipboard, %s to stop, ctrl+c to quit.",
		keyword(a.trigger.Display()), keyword(a.stop.Display()))))

	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-a.ctrl.Statuses():
			if !ok {
				return nil
			}
			log.Debug("status", "kind", s.Kind, "state", s.State, "utterance", s.UtteranceID)
			fmt.Println(s.Text)
		}
	}
}

func runTUI(ctx context.Context, a *app) error {
	// Read environment to get debugging stuff
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	uiCfg.Trigger = a.trigger.Display()
	uiCfg.Stop = a.stop.Display()
	uiCfg.Engine = a.engine.Name()

	var stats ui.CacheStats
	if a.cache != nil {
		stats = a.cacheStats
	}

	p := ui.NewProgram(ctx, uiCfg, a.ctrl, stats)
	a.watchVoices(ctx, func() { p.Send(ui.CatalogChangedMsg{}) })

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	mainthread.Init(run)
}

// run executes the root command. Hotkey registration needs the main
// thread on macOS, so it runs under mainthread.Init.
func run() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	// assigned here rather than in the literal to break the rootCmd -> validateOptions -> manCmd -> rootCmd initialization cycle
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return validateOptions(cmd)
	}

	config.SetDefaults(viper.GetViper())
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringP("engine", "e", "auto", "speech engine (auto, sapi, say, espeak, piper, mock)")
	rootCmd.PersistentFlags().String("voice", "", "voice label, ID or loose match such as \"german female\"")
	rootCmd.PersistentFlags().IntP("rate", "r", 300, "speech rate in words per minute")
	rootCmd.PersistentFlags().Bool("capture", false, "copy the current selection before reading")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug output to the log file")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "run without the settings screen")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("voice", rootCmd.PersistentFlags().Lookup("voice"))
	_ = viper.BindPFlag("rate.default", rootCmd.PersistentFlags().Lookup("rate"))
	_ = viper.BindPFlag("capture.enabled", rootCmd.PersistentFlags().Lookup("capture"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("debug", false)

	rootCmd.AddCommand(configCmd, manCmd, readCmd, voicesCmd, doctorCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "clipspeak")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "clipspeak")}, dirs...)
	}

	if c := os.Getenv("CLIPSPEAK_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("clipspeak")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("clipspeak")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "clipspeak.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
