// Package screenshot captures full-page screenshots and the rendered DOM via
// headless Chrome. The derived visual and content probes consume its output.
package screenshot

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Capture holds one page capture: the PNG image and the rendered HTML.
type Capture struct {
	URL   string
	PNG   []byte
	HTML  string
	Width int64
}

// Capturer captures pages. Implementations must honor ctx deadlines.
type Capturer interface {
	Capture(ctx context.Context, rawURL string) (*Capture, error)
	Close() error
}

// Config configures the Chrome capturer.
type Config struct {
	UserAgent      string
	ViewportWidth  int64
	ViewportHeight int64
	MaxConcurrent  int
	Quality        int
}

// DefaultConfig returns capture settings suited to assessment screenshots.
func DefaultConfig() Config {
	return Config{
		UserAgent:      "presence-cli/1.0 (+https://github.com/sells-group/presence-cli)",
		ViewportWidth:  1366,
		ViewportHeight: 900,
		MaxConcurrent:  2,
		Quality:        80,
	}
}

// ChromeCapturer keeps one headless browser warm and opens a tab per capture.
type ChromeCapturer struct {
	cfg             Config
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	sem             chan struct{}
}

// NewChromeCapturer launches the headless browser.
func NewChromeCapturer(cfg Config) (*ChromeCapturer, error) {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, eris.Wrap(err, "screenshot: chrome warmup")
	}

	return &ChromeCapturer{
		cfg:             cfg,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		sem:             make(chan struct{}, cfg.MaxConcurrent),
	}, nil
}

// Close tears down the browser and allocator.
func (c *ChromeCapturer) Close() error {
	if c == nil {
		return nil
	}
	c.browserCancel()
	c.allocatorCancel()
	return nil
}

// Capture renders the page in a fresh tab and returns the screenshot plus
// the rendered HTML. The caller's ctx deadline bounds the whole capture.
func (c *ChromeCapturer) Capture(ctx context.Context, rawURL string) (*Capture, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "screenshot: acquire slot")
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()

	stop := forwardCancel(ctx, cancelTab)
	defer stop()

	start := time.Now()
	var png []byte
	var html string

	tasks := chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(c.cfg.ViewportWidth, c.cfg.ViewportHeight, 1, false),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, c.cfg.Quality),
	}
	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return nil, eris.Wrap(err, "screenshot: capture")
	}

	zap.L().Debug("screenshot: captured",
		zap.String("url", rawURL),
		zap.Int("png_bytes", len(png)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Capture{
		URL:   rawURL,
		PNG:   png,
		HTML:  html,
		Width: c.cfg.ViewportWidth,
	}, nil
}

// forwardCancel propagates the caller's cancellation into the tab context.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
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
