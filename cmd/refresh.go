package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/icalmcp/internal/config"
	"github.com/teemow/icalmcp/internal/feed"
	"github.com/teemow/icalmcp/internal/logging"
)

func newRefreshCmd() *cobra.Command {
	var (
		debugMode bool
		cfgFlags  configFlags
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch all configured feeds once and report their status",
		Long: `Fetch every configured calendar feed once and print a per-feed status
table. Useful for verifying feed URLs and credentials before starting
the server, or as a health check in CI.

The command exits with a non-zero status if every feed failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cfgFlags.load()
			if err != nil {
				return err
			}
			return runRefresh(cfg, debugMode)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cfgFlags.register(cmd)

	return cmd
}

func runRefresh(cfg config.Config, debugMode bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := setupLogging(debugMode)

	if len(cfg.Feeds) == 0 {
		return fmt.Errorf("no feeds configured (use --feeds, ICAL_FEED_CONFIGS or a config file)")
	}

	registry := feed.NewRegistry()
	for _, fc := range cfg.Feeds {
		if _, _, err := registry.Add(fc.URL, fc.Name); err != nil {
			logger.Warn("skipping invalid feed", logging.URL(fc.URL), logging.Err(err))
		}
	}
	if registry.Len() == 0 {
		return fmt.Errorf("no valid feeds configured")
	}

	fetcher := feed.NewFetcher(registry, logger, nil)
	results := fetcher.RefreshAll(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FEED\tID\tSTATUS\tEVENTS\tERROR")
	failed := 0
	for _, res := range results {
		if res.Status != "success" {
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			res.FeedName, res.FeedID, res.Status, res.EventCount, summarizeError(res.Error))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed == len(results) {
		return fmt.Errorf("all %d feeds failed to refresh", len(results))
	}
	return nil
}

// summarizeError reduces fetch guidance, which can span several lines, to
// the first line so the status table stays aligned.
func summarizeError(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}
