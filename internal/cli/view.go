package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yildizm/prhistory/internal/client"
	"github.com/yildizm/prhistory/internal/ui"
)

var (
	viewSource  sourceFlags
	viewNoWatch bool
	viewTheme   string
	viewLogFile string
)

func newViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse request history interactively",
		Long: `Open the interactive history viewer.

Events are shown five at a time. Use ←/→ to move through the loaded events
and press m at the end of the list to fetch the next page from the portal.
When reading from a file the view reloads whenever the file changes.`,
		Example: `  prhistory view --url https://records.example.gov --session abc123
  prhistory view --file history.json`,
		RunE: runView,
	}

	addSourceFlags(cmd, &viewSource)
	cmd.Flags().BoolVar(&viewNoWatch, "no-watch", false, "do not reload when the history file changes")
	cmd.Flags().StringVar(&viewTheme, "theme", "", "color theme (default, high-contrast, minimal)")
	cmd.Flags().StringVar(&viewLogFile, "log-file", "", "write log output to this file while the viewer runs")

	return cmd
}

func addSourceFlags(cmd *cobra.Command, flags *sourceFlags) {
	*flags = sourceFlags{retries: -1}
	cmd.Flags().StringVarP(&flags.url, "url", "u", "", "portal base URL")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "read history from an exported json or yaml file")
	cmd.Flags().StringVar(&flags.session, "session", "", "portal session cookie")
	cmd.Flags().IntVar(&flags.retries, "retries", -1, "extra attempts per page (default from config)")
}

func runView(cmd *cobra.Command, args []string) error {
	env, err := newEnv(&viewSource)
	if err != nil {
		return err
	}

	themeName := env.cfg.UI.Theme
	if viewTheme != "" {
		themeName = viewTheme
	}
	theme, ok := ui.ThemeByName(themeName)
	if !ok {
		return fmt.Errorf("unknown theme: %s (available: %v)", themeName, ui.GetAvailableThemes())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := ui.HistoryOptions{
		Source: env.source,
		Theme:  theme,
		Color:  env.colorEnabled(),
	}

	// the alternate screen owns the terminal; failures still show in the footer
	if viewLogFile != "" {
		// #nosec G304 - path supplied by the user on the command line
		f, err := os.OpenFile(viewLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		env.log.SetOutput(f)
	} else {
		env.log.SetOutput(io.Discard)
	}

	g, gctx := errgroup.WithContext(ctx)
	viewCtx, stop := context.WithCancel(gctx)
	defer stop()

	if env.file != "" && env.cfg.Source.Watch && !viewNoWatch {
		watcher, err := client.NewWatcher(env.file, env.cfg.Source.Debounce, env.log.WithComponent("watch"))
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", env.file, err)
		}
		opts.Changes = watcher.Changes()
		g.Go(func() error {
			watcher.Run(viewCtx)
			return nil
		})
	}

	g.Go(func() error {
		defer stop()
		return ui.RunHistory(viewCtx, env.newPaginator(), opts)
	})

	return g.Wait()
}
