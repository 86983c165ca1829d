// Package main provides the slack-bridge CLI. Each invocation runs exactly
// one function against a persisted browser session and prints a single JSON
// line on stdout. Failures exit 1 with the message on stderr.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/entrhq/slack-bridge/pkg/bridge"
	"github.com/entrhq/slack-bridge/pkg/browser"
	"github.com/entrhq/slack-bridge/pkg/config"
	"github.com/entrhq/slack-bridge/pkg/logging"
	"github.com/entrhq/slack-bridge/pkg/session"
	"github.com/spf13/cobra"
)

const (
	version = "0.1.0"
	usage   = "Usage: slack-bridge --function <fn> --session <id|new> --input '<json>'"
)

// engineFactory builds the browser engine for a configuration.
type engineFactory func(cfg *config.Config, log *logging.Logger) (browser.Engine, error)

// cliFlags holds the parsed command-line flags.
type cliFlags struct {
	function    string
	session     string
	input       string
	headed      bool
	configFile  string
	sessionsDir string
	engine      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, browser.New)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, newEngine engineFactory) int {
	cmd := newRootCmd(stdout, newEngine)
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer, newEngine engineFactory) *cobra.Command {
	flags := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "slack-bridge",
		Short: "Drive a persisted Slack browser session, one function per call",
		Long: "slack-bridge runs one function (" + strings.Join(bridge.Functions, ", ") + ") against a\n" +
			"browser session whose cookies, local storage and element references are\n" +
			"persisted between invocations. The result is printed as one JSON line.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd.Context(), flags, stdout, newEngine)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.function, "function", "", "function to run: "+strings.Join(bridge.Functions, ", "))
	f.StringVar(&flags.session, "session", session.DefaultID, "session id, or \"new\" with open")
	f.StringVar(&flags.input, "input", "", "JSON input record for the function")
	f.BoolVar(&flags.headed, "headed", false, "show the browser window (open leaves it running)")
	f.StringVar(&flags.configFile, "config", "", "path to a YAML config file (default <config-root>/config.yaml)")
	f.StringVar(&flags.sessionsDir, "sessions-dir", "", "override the sessions root directory")
	f.StringVar(&flags.engine, "engine", "", "browser engine: playwright or rod")

	return cmd
}

// loadConfig layers the config file, environment and flags.
func loadConfig(flags *cliFlags) (*config.Config, error) {
	path := flags.configFile
	if path == "" {
		root, err := config.RootDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(root, "config.yaml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.sessionsDir != "" {
		cfg.SessionsDir = flags.sessionsDir
	}
	if flags.engine != "" {
		cfg.Engine = config.Engine(flags.engine)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func execute(ctx context.Context, flags *cliFlags, stdout io.Writer, newEngine engineFactory) error {
	if flags.function == "" {
		return bridge.NewUsageError("%s", usage)
	}

	in, err := bridge.ParseInput(flags.input)
	if err != nil {
		return err
	}
	if flags.headed {
		in.Headed = true
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	// NewLogger falls back to stderr on error and reports it there
	log, _ := logging.NewLogger(cfg.LogDir, "cli")
	defer log.Close()

	engine, err := newEngine(cfg, log.Named("browser"))
	if err != nil {
		return err
	}

	store := session.NewStore(cfg.SessionsDir, log.Named("session"))
	runtime := bridge.NewRuntime(store, engine, cfg, log.Named("runtime"))
	dispatcher := bridge.NewDispatcher(runtime, store, cfg, log.Named("dispatcher"))

	out, err := dispatcher.Dispatch(ctx, bridge.Request{
		Function: flags.function,
		Session:  flags.session,
		Input:    in,
	})
	if err != nil {
		log.Errorf("%s failed: %v", flags.function, err)
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out.Result); err != nil {
		if out.Detached != nil {
			_ = out.Detached.Close()
		}
		return fmt.Errorf("failed to write result: %w", err)
	}

	if out.Detached != nil {
		return waitDetached(ctx, out.Detached, log)
	}
	return nil
}

// waitDetached keeps the process alive while a headed browser is in use,
// until the window is closed or the process is signalled.
func waitDetached(ctx context.Context, b browser.Browser, log *logging.Logger) error {
	log.Infof("waiting for the headed browser to close")
	err := b.Wait(ctx)
	if errors.Is(err, context.Canceled) {
		log.Infof("interrupted, closing headed browser")
		err = nil
	}
	if cerr := b.Close(); cerr != nil && err == nil {
		log.Warnf("failed to close headed browser: %v", cerr)
	}
	return err
}
