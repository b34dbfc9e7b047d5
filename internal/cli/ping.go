package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/prhistory/internal/client"
	"github.com/yildizm/prhistory/internal/emoji"
)

var pingSource sourceFlags

func newPingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the portal is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnv(&pingSource)
			if err != nil {
				return err
			}

			fetcher, ok := env.fetcher.(*client.HTTPFetcher)
			if !ok {
				return fmt.Errorf("ping needs a portal URL, not a history file")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), env.cfg.Server.Timeout+time.Second)
			defer cancel()

			start := time.Now()
			if err := fetcher.HealthCheck(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s reachable (%s)\n",
				emoji.GetEmoji("success"), env.source, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	addSourceFlags(cmd, &pingSource)
	return cmd
}
