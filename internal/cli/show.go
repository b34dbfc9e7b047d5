package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/prhistory/internal/formatter"
	"github.com/yildizm/prhistory/internal/history"
	"github.com/yildizm/prhistory/internal/logger"
	"github.com/yildizm/prhistory/internal/monitor"
	"github.com/yildizm/prhistory/internal/render"
)

var (
	showSource   sourceFlags
	showNext     int
	showPrevious int
	showPages    int
	showTrace    bool
	showStats    bool
	showTimeout  time.Duration
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a window of request history",
		Long: `Load the request history and print one window of five events.

--pages fetches that many further pages of fifty events before printing.
--next and --previous then move the window the way the arrow buttons do.
With --trace every table update is written to stderr as an HTML fragment.`,
		Example: `  prhistory show --url https://records.example.gov
  prhistory show --file history.json --next 3 -o json
  prhistory show --pages 2 --next 10 -o markdown`,
		RunE: runShow,
	}

	addSourceFlags(cmd, &showSource)
	cmd.Flags().IntVar(&showNext, "next", 0, "move the window forward this many times")
	cmd.Flags().IntVar(&showPrevious, "previous", 0, "move the window back this many times (after --next)")
	cmd.Flags().IntVar(&showPages, "pages", 0, "load this many further pages before printing")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "write every table update to stderr as HTML")
	cmd.Flags().BoolVar(&showStats, "stats", false, "write fetch statistics to stderr")
	cmd.Flags().DurationVar(&showTimeout, "timeout", 2*time.Minute, "overall time limit")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	if showNext < 0 || showPrevious < 0 || showPages < 0 {
		return fmt.Errorf("--next, --previous and --pages must be non-negative")
	}

	env, err := newEnv(&showSource)
	if err != nil {
		return err
	}

	var stats *monitor.InstrumentedFetcher
	if showStats {
		stats = monitor.Instrument(env.fetcher)
		env.fetcher = stats
	}

	var opts []history.Option
	var trace *render.HTMLTarget
	if showTrace {
		trace = render.NewHTMLTarget(cmd.ErrOrStderr())
		opts = append(opts, history.WithRenderer(trace))
	}
	p := env.newPaginator(opts...)

	ctx, cancel := context.WithTimeout(cmd.Context(), showTimeout)
	defer cancel()

	loadErr := browse(ctx, p, env.log)

	if trace != nil && trace.Err() != nil {
		env.log.Warn("failed to write trace: %v", trace.Err())
	}

	f, err := formatter.New(env.cfg.Output.DefaultFormat, env.colorEnabled())
	if err != nil {
		return err
	}
	snap := p.Snapshot()
	out, err := f.Format(&snap)
	if err != nil {
		return fmt.Errorf("failed to format history: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(out); err != nil {
		return err
	}

	if stats != nil {
		statsFormat := "text"
		if env.cfg.Output.DefaultFormat == "json" {
			statsFormat = "json"
		}
		if err := monitor.WriteReport(cmd.ErrOrStderr(), stats.Stats(), statsFormat); err != nil {
			return err
		}
	}

	return loadErr
}

// browse drives p the way a user would: initial load, further pages, then
// window moves. It stops at the first failed fetch.
func browse(ctx context.Context, p *history.Paginator, log *logger.Logger) error {
	if err := p.Initialize(ctx).Wait(ctx); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}

	for i := 0; i < showPages; i++ {
		before := len(p.Events())
		if err := p.LoadMore(ctx).Wait(ctx); err != nil {
			if errors.Is(err, history.ErrStale) {
				continue
			}
			return fmt.Errorf("loading page %d failed: %w", p.Snapshot().ReloadIndex, err)
		}
		if len(p.Events()) == before {
			log.Info("history exhausted after %d events", before)
			break
		}
	}

	for i := 0; i < showNext; i++ {
		p.Next()
	}
	for i := 0; i < showPrevious; i++ {
		p.Previous()
	}

	return nil
}
