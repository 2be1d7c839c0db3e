// Package cmd wires the moviebook command line: the interactive app by
// default, plus one-shot commands for scripting.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"moviebook-cli/auth"
	"moviebook-cli/booking"
	"moviebook-cli/config"
	"moviebook-cli/logging"
	"moviebook-cli/service"
	"moviebook-cli/store"
	"moviebook-cli/tui"
)

const appName = "moviebook"

// env is the state shared by every command once flags are parsed.
type env struct {
	configPath string
	backendURL string
	logLevel   string
	city       string
	detectCity bool

	cfg     *config.Config
	client  *service.Client
	auth    *auth.Manager
	logFile *os.File
}

// Execute runs the command line and returns the process exit code.
func Execute(version, commit string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(version, commit)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", booking.UserMessage(err))
		return 1
	}
	return 0
}

func newRootCmd(version, commit string) *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   appName,
		Short: "Book movie tickets from the terminal",
		Long: `Browse movies and shows, pick seats on the auditorium map and book them,
all from the terminal. Run without arguments for the interactive app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd, cmd == cmd.Root())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runInteractive(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&e.backendURL, "backend", "", "booking backend base URL")
	flags.StringVar(&e.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.StringVar(&e.city, "city", "", "list theatres in this city first")
	root.Flags().BoolVar(&e.detectCity, "detect-city", false, "guess your city from your public IP")

	root.AddCommand(
		newLoginCmd(e),
		newSignupCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newMoviesCmd(e),
		newTheatresCmd(e),
		newShowsCmd(e),
		newSeatsCmd(e),
		newBookCmd(e),
		newBookingsCmd(e),
		newPayCmd(e),
		newVersionCmd(version, commit),
	)
	return root
}

// setup loads config, configures logging and builds the API client. The
// interactive app owns the terminal, so it logs to a file instead of stderr.
func (e *env) setup(cmd *cobra.Command, interactive bool) error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return err
	}
	if e.backendURL != "" {
		cfg.Backend.URL = strings.TrimRight(strings.TrimSpace(e.backendURL), "/")
	}
	if e.city != "" {
		cfg.City = strings.TrimSpace(e.city)
	}
	e.cfg = cfg

	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if e.logLevel != "" {
		logCfg.Level = e.logLevel
	}
	if interactive {
		if cfg.Log.File == "" {
			logCfg.Level = "disabled"
		} else {
			f, err := logging.OpenFile(cfg.Log.File)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			e.logFile = f
			logCfg.Output = f
		}
	} else {
		logCfg.Output = cmd.ErrOrStderr()
		logCfg.Format = "console"
		if e.logLevel == "" {
			logCfg.Level = "warn"
		}
	}
	logging.Init(logCfg)

	e.client = service.NewClientWithOptions(service.Options{
		BaseURL:       cfg.Backend.URL,
		Timeout:       cfg.Backend.Timeout,
		MaxAttempts:   cfg.Backend.MaxAttempts,
		RetryBase:     cfg.Backend.RetryBase,
		RetryCap:      cfg.Backend.RetryCap,
		RatePerSecond: cfg.Backend.RatePerSecond,
		Burst:         cfg.Backend.Burst,
		Breaker: service.BreakerOptions{
			MaxRequests:         cfg.Breaker.MaxRequests,
			Interval:            cfg.Breaker.Interval,
			Timeout:             cfg.Breaker.Timeout,
			ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		},
	})
	e.auth = auth.NewManager(e.client)
	logging.Debug().Str("backend", cfg.Backend.URL).Msg("configured")
	return nil
}

func (e *env) close() {
	if e.logFile != nil {
		_ = e.logFile.Close()
		e.logFile = nil
	}
}

func (e *env) runInteractive(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if _, err := e.auth.Bootstrap(ctx); err != nil {
		logging.Warn().Err(err).Msg("session check failed")
	}

	city := e.cfg.City
	if city == "" && e.detectCity {
		detectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		detected, err := service.DetectCity(detectCtx, nil)
		cancel()
		if err != nil {
			logging.Warn().Err(err).Msg("city detection failed")
		} else {
			city = detected
		}
	}

	model := tui.New(tui.Deps{
		Client: e.client,
		Auth:   e.auth,
		Prices: e.cfg.Prices,
		City:   city,
	})
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// requireSession restores the stored session, failing when nobody is signed in.
func (e *env) requireSession(ctx context.Context) (*store.Session, error) {
	session, err := e.auth.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, booking.ErrNotLoggedIn
	}
	return session, nil
}

func newVersionCmd(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s", appName, version)
			if commit != "none" && commit != "" {
				fmt.Fprintf(out, " (%s)", commit)
			}
			fmt.Fprintln(out)
		},
	}
}
