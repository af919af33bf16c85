package scraper

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/streamcat/hotstar-crawler/internal/config"
)

// ChromedpSession implements Session using headless Chrome via chromedp.
// One session owns one browser tab; all page interaction is sequential.
type ChromedpSession struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
}

// NewChromedpSession starts a browser with the flag set the listing pages
// tolerate (automation hints disabled, fixed window size).
func NewChromedpSession(cfg config.ScraperConfig, logger *zap.Logger) (*ChromedpSession, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx, sessionSetupAction(cfg.UserAgent)); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &ChromedpSession{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
	}, nil
}

// sessionSetupAction enables the network domain and applies the user-agent
// override before any navigation happens.
func sessionSetupAction(userAgent string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if userAgent != "" {
			if err := emulation.SetUserAgentOverride(userAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// Close tears down the browser and allocator contexts.
func (s *ChromedpSession) Close(context.Context) error {
	if s == nil {
		return nil
	}
	s.browserCancel()
	s.allocatorCancel()
	return nil
}

// Navigate loads a URL in the session's tab.
func (s *ChromedpSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// ScrollBy scrolls the window by the given deltas.
func (s *ChromedpSession) ScrollBy(ctx context.Context, dx, dy int) error {
	expr := fmt.Sprintf("window.scrollBy(%d, %d);", dx, dy)
	if err := s.run(ctx, chromedp.Evaluate(expr, nil)); err != nil {
		return fmt.Errorf("scroll by (%d,%d): %w", dx, dy, err)
	}
	return nil
}

// Text returns the trimmed text of the first matching element without
// waiting for one to appear.
func (s *ChromedpSession) Text(ctx context.Context, selector string) (string, error) {
	var out string
	err := s.run(ctx, chromedp.Text(selector, &out, chromedp.ByQuery, chromedp.AtLeast(0)))
	if err != nil {
		return "", fmt.Errorf("text %q: %w", selector, err)
	}
	return out, nil
}

// Evaluate runs a JavaScript expression in the page.
func (s *ChromedpSession) Evaluate(ctx context.Context, expr string, out any) error {
	if err := s.run(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

// run executes actions against the session tab while honoring the caller's
// context, which is not the chromedp context.
func (s *ChromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.browserCtx)
	defer cancel()

	stopForward := forwardCancel(ctx, cancel)
	defer stopForward()

	return chromedp.Run(runCtx, actions...)
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
