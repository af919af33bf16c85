package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/streamcat/hotstar-crawler/internal/logging"
	"github.com/streamcat/hotstar-crawler/internal/reconcile"
	"github.com/streamcat/hotstar-crawler/internal/scraper"
)

// newScrapeCmd creates and configures the 'scrape' subcommand. It walks the
// two listing pages in sequence and reconciles each batch into the catalog.
func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrapes the movie and show listings into the catalog",
		Long: `Walks the movies and shows listing pages with a headless browser,
extracts a structured record per title, and reconciles each batch into the
relational catalog (titles upserted, genre and language associations
synchronized).`,

		RunE: runScrapeCommand,
	}
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	cfg := appInstance.Config()
	logger := logging.WithRun(appInstance.Logger(), uuid.NewString())

	ctx := cmd.Context()
	if limit := cfg.Scraper.SessionLifeLimit; limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	sess, err := scraper.NewChromedpSession(cfg.Scraper, logger)
	if err != nil {
		return fmt.Errorf("start browser session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil {
			logger.Warn("Failed to close browser session", zap.Error(cerr))
		}
	}()

	walker := scraper.NewWalker(sess, cfg.Scraper, logger)
	reconciler := reconcile.New(appInstance.Store(), logger)

	movies, err := walker.ScrapeMovies(ctx)
	if err != nil {
		return fmt.Errorf("scrape movies: %w", err)
	}
	moviesSaved, err := reconciler.SaveMovies(ctx, movies)
	if err != nil {
		return fmt.Errorf("save movies: %w", err)
	}
	logger.Info("Scraped and saved movies", zap.Int("scraped", len(movies)), zap.Int("saved", moviesSaved))

	shows, err := walker.ScrapeShows(ctx)
	if err != nil {
		return fmt.Errorf("scrape shows: %w", err)
	}
	showsSaved, err := reconciler.SaveShows(ctx, shows)
	if err != nil {
		return fmt.Errorf("save shows: %w", err)
	}
	logger.Info("Scraped and saved shows", zap.Int("scraped", len(shows)), zap.Int("saved", showsSaved))

	logger.Info("Scrape command finished.")
	return nil
}
