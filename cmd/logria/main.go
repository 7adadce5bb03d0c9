// Command logria is the CLI entry point of spec §6: `logria [-e CMD]
// [-c] [-n] [-v]`. Grounded on cmd/xcw/main.go's kong.Parse wiring,
// narrowed from xcw's large subcommand tree to Logria's flat flag set
// plus the interactive mini-language driven entirely inside the TUI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/reagentx/logria-go/internal/config"
	"github.com/reagentx/logria-go/internal/engine"
	"github.com/reagentx/logria-go/internal/source"
)

// Version is set at build time.
var Version = "0.1.0"

// appName matches spec §6's "-v prints APP_NAME VERSION".
const appName = "logria"

// cli is the root flag structure of spec §6.
type cli struct {
	Exec       []string `short:"e" help:"Launch a CommandSource on this argv (split by spaces); repeatable, only the first is used"`
	NoHistory  bool     `short:"c" help:"Disable history persistence"`
	NoSmart    bool     `short:"n" help:"Disable smart polling"`
	PrintVer   bool     `short:"v" help:"Print version and exit"`
	ConfigRoot string   `help:"Override $CONFIG (defaults to ~/.logria)"`
	File       string   `arg:"" optional:"" help:"File to read when no -e command is given"`
}

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name(appName),
		kong.Description("Logria: interactive terminal log viewer"),
		kong.UsageOnError(),
	)

	if c.PrintVer {
		fmt.Printf("%s %s\n", appName, Version)
		return
	}

	// Piping is not supported, per spec §6.
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		fmt.Fprintln(os.Stderr, "Piping is not supported")
		os.Exit(1)
	}

	if c.ConfigRoot != "" {
		os.Setenv("LOGRIA_CONFIG_DIR", c.ConfigRoot)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	logger := newLogger(cfg.Level)
	defer logger.Sync()
	sugar := logger.Sugar()

	src, err := buildSource(c.Exec, c.File)
	if err != nil {
		sugar.Fatalw("failed to build source", "error", err)
	}

	opts := engine.Options{
		SmartPoll:       cfg.SmartPoll && !c.NoSmart,
		HistoryEnabled:  cfg.HistoryEnabled && !c.NoHistory,
		HistoryPath:     cfg.HistoryPath(),
		InitialPollRate: cfg.PollRate,
		AnalyticsTopK:   cfg.AnalyticsTopK,
		ParsersDir:      cfg.ParsersDir(),
		SessionsDir:     cfg.SessionsDir(),
	}
	eng := engine.New(src, sugar, opts)

	p := tea.NewProgram(eng, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		sugar.Fatalw("logria exited with an error", "error", err)
	}
}

// buildSource implements spec §6's "-e CMD launches CommandSource on a
// single argv split by spaces; repeatable flag stores a list but only
// the first is used". With no -e, Logria reads the first positional
// file argument instead (FileSource), matching the original's
// interactive setup-menu fallback simplified to a direct CLI path.
func buildSource(exec []string, file string) (source.Source, error) {
	if len(exec) > 0 {
		argv := strings.Fields(exec[0])
		if len(argv) == 0 {
			return nil, fmt.Errorf("empty -e argument")
		}
		return source.NewCommandSource(argv), nil
	}
	if file != "" {
		return source.NewFileSource(file), nil
	}
	return nil, fmt.Errorf("no -e command or file argument given")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{os.TempDir() + "/logria.log"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
