package scraper

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/streamcat/hotstar-crawler/internal/catalog"
	"github.com/streamcat/hotstar-crawler/internal/config"
	"github.com/streamcat/hotstar-crawler/internal/metrics"
)

// Readiness expressions polled between interactions. Each budget was a
// fixed sleep in an earlier cut of the pipeline; the durations survive as
// poll budgets and the walker proceeds either way.
const (
	cardsPresentExpr = `document.querySelectorAll("div[data-testid='action']").length > 0`
	detailReadyExpr  = `!!document.querySelector('div[aria-label*="Release Year"]')`
	detailGoneExpr   = `!document.querySelector('i.icon-close')`
)

const cardLabelsScript = `Array.from(document.querySelectorAll("div[data-testid='action']"))
	.map(function(el) { return el.getAttribute('aria-label') || ''; })`

const closeDetailScript = `(function() {
	var btn = document.querySelector('i.icon-close');
	if (btn) btn.click();
})()`

func scrollIntoViewScript(index int) string {
	return fmt.Sprintf(`(function() {
	var cards = document.querySelectorAll("div[data-testid='action']");
	var card = cards[%d];
	if (card) card.scrollIntoView({block:'center'});
})()`, index)
}

func openDetailScript(index int) string {
	return fmt.Sprintf(`(function() {
	var cards = document.querySelectorAll("div[data-testid='action']");
	var card = cards[%d];
	if (!card) return false;
	var target = card.querySelector('article');
	if (!target) return false;
	target.click();
	return true;
})()`, index)
}

// Walker drives one listing page at a time: navigate, warm-up scroll,
// enumerate cards, and open each unique title's detail view for extraction.
// Processing is strictly sequential over the single browser session, so
// records accumulate in a plain slice.
type Walker struct {
	sess   Session
	ext    *Extractor
	cfg    config.ScraperConfig
	logger *zap.Logger
}

// NewWalker builds a Walker over a session.
func NewWalker(sess Session, cfg config.ScraperConfig, logger *zap.Logger) *Walker {
	return &Walker{
		sess:   sess,
		ext:    NewExtractor(sess, logger),
		cfg:    cfg,
		logger: logger,
	}
}

// ScrapeMovies walks the movies listing page and returns one record per
// unique title encountered.
func (w *Walker) ScrapeMovies(ctx context.Context) ([]catalog.MovieRecord, error) {
	var records []catalog.MovieRecord
	err := w.walk(ctx, w.cfg.MoviesURL, "movie", func(ctx context.Context, title string) {
		info := w.ext.movieInfo(ctx)
		records = append(records, catalog.MovieRecord{
			Title:       title,
			Description: w.ext.description(ctx),
			Genres:      w.ext.genres(ctx),
			ReleaseYear: info.Year,
			Rating:      info.Rating,
			Duration:    info.Duration,
			Language:    w.ext.language(ctx),
			ImageURL:    w.ext.imageURL(ctx),
		})
	})
	return records, err
}

// ScrapeShows walks the shows listing page and returns one record per
// unique title encountered.
func (w *Walker) ScrapeShows(ctx context.Context) ([]catalog.ShowRecord, error) {
	var records []catalog.ShowRecord
	err := w.walk(ctx, w.cfg.ShowsURL, "show", func(ctx context.Context, title string) {
		info := w.ext.showInfo(ctx)
		records = append(records, catalog.ShowRecord{
			Title:       title,
			Description: w.ext.description(ctx),
			Genres:      w.ext.genres(ctx),
			ReleaseYear: info.Year,
			Rating:      info.Rating,
			Season:      info.Season,
			ImageURL:    w.ext.imageURL(ctx),
		})
	})
	return records, err
}

func (w *Walker) walk(ctx context.Context, pageURL, kind string, visit func(ctx context.Context, title string)) error {
	if err := w.sess.Navigate(ctx, pageURL); err != nil {
		return fmt.Errorf("navigate listing: %w", err)
	}
	waitFor(ctx, w.sess, cardsPresentExpr, w.cfg.NavigateWait, w.cfg.PollInterval)

	// Warm-up scrolls trigger the listing's lazy loader.
	for i := 0; i < w.cfg.ScrollPasses; i++ {
		if err := w.sess.ScrollBy(ctx, 0, w.cfg.ScrollStep); err != nil {
			w.logger.Warn("Warm-up scroll failed", zap.Error(err))
		}
		pause(ctx, w.cfg.ScrollWait)
	}

	var labels []string
	if err := w.sess.Evaluate(ctx, cardLabelsScript, &labels); err != nil {
		return fmt.Errorf("enumerate cards: %w", err)
	}
	w.logger.Info("Enumerated listing cards", zap.String("kind", kind), zap.Int("cards", len(labels)))

	seen := make(map[string]struct{}, len(labels))
	for i, label := range labels {
		if ctx.Err() != nil {
			return fmt.Errorf("walk canceled: %w", ctx.Err())
		}
		title := titleFromLabel(label)
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		w.processCard(ctx, i, title, kind, visit)
	}
	return nil
}

// processCard opens one card's detail view and delegates extraction. The
// close step runs on every exit path so a broken card never leaves an
// overlay blocking the next one.
func (w *Walker) processCard(ctx context.Context, index int, title, kind string, visit func(ctx context.Context, title string)) {
	defer w.closeDetail(ctx)

	w.logger.Info("Processing card", zap.String("kind", kind), zap.String("title", title))

	if err := w.sess.Evaluate(ctx, scrollIntoViewScript(index), nil); err != nil {
		w.logger.Warn("Scroll into view failed", zap.String("title", title), zap.Error(err))
	}
	pause(ctx, w.cfg.ScrollIntoWait)

	var clicked bool
	err := w.sess.Evaluate(ctx, openDetailScript(index), &clicked)
	if err != nil || !clicked {
		w.logger.Warn("Unable to open detail view", zap.String("title", title), zap.Error(err))
		metrics.ObserveCardSkipped(kind)
		return
	}
	waitFor(ctx, w.sess, detailReadyExpr, w.cfg.DetailOpenWait, w.cfg.PollInterval)

	visit(ctx, title)
	metrics.ObserveCardProcessed(kind)
}

func (w *Walker) closeDetail(ctx context.Context) {
	if err := w.sess.Evaluate(ctx, closeDetailScript, nil); err != nil {
		w.logger.Debug("Close detail click failed", zap.Error(err))
	}
	waitFor(ctx, w.sess, detailGoneExpr, w.cfg.DetailCloseWait, w.cfg.PollInterval)
}
