package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/casedesk/internal/adapter"
	"github.com/mmcdole/casedesk/internal/casemgmt"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/kieserver"
	"github.com/mmcdole/casedesk/internal/store"
	"github.com/mmcdole/casedesk/internal/tui"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	cfg       *adapter.Config
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "casedesk",
	Short: "Terminal client for KIE server case management",
	Long: `casedesk browses cases and their comments on a KIE execution server.

Run without arguments to start the interactive interface. The first run asks
for the server URL and credentials.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = adapter.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, logCloser, err = adapter.SetupLogger(&cfg.Logging)
		if err != nil {
			// Fall back to null logger if file logging fails
			logger = adapter.NullLogger()
		}
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.IsConfigured() {
			return runSetup(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		}
		return runTUI(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(setupCmd, logoutCmd, casesCmd, commentsCmd, exportCmd, versionCmd)
}

// ExecuteContext runs the root command with the given context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// backend bundles the pieces every server-facing command needs
type backend struct {
	svc    *casemgmt.Service
	client *kieserver.Client
	store  *store.CaseStore
}

func (b *backend) Close() error {
	return b.store.Close()
}

// openBackend connects the configured server with the local store
func openBackend() (*backend, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("not configured, run 'casedesk setup' first")
	}

	client := kieserver.NewClient(cfg.Server.URL, cfg.Server.Username, cfg.Server.Password,
		kieserver.WithLogger(logger),
		kieserver.WithTimeout(cfg.Server.Timeout),
		kieserver.WithRateLimit(cfg.Server.RateLimit, cfg.Server.Burst),
		kieserver.WithContainer(cfg.Server.Container),
	)

	st, err := store.NewCaseStore(cfg.CachePath(), cfg.Server.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open case store: %w", err)
	}

	svc := casemgmt.NewService(client, st, domain.StaticIdentity(cfg.Server.Username), logger)
	return &backend{svc: svc, client: client, store: st}, nil
}

func runTUI(ctx context.Context) error {
	logger.Info("starting casedesk", "version", Version, "server", cfg.Server.URL)

	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	model := tui.NewModel(b.svc, tui.Options{
		CaseFetchSize: cfg.Paging.CaseFetchSize,
		Comments:      cfg.CommentPaging(),
		ShowOverview:  cfg.UI.ShowOverview,
		Opener:        adapter.NewLauncher(cfg.UI.Browser, nil, logger),
		CaseURL:       b.client.CaseURL,
		Logger:        logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
