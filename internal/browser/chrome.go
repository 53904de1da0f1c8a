package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// readyPollInterval is how often WaitReady samples document.readyState.
const readyPollInterval = 100 * time.Millisecond

// Chrome is a Factory backed by one headless Chrome process.
type Chrome struct {
	headless  bool
	userAgent string
	execPath  string
	dataDir   string
	logger    *slog.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// ChromeOption configures Chrome.
type ChromeOption func(*Chrome)

// WithHeadless toggles headless mode. Default true.
func WithHeadless(headless bool) ChromeOption {
	return func(c *Chrome) {
		c.headless = headless
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) ChromeOption {
	return func(c *Chrome) {
		c.userAgent = ua
	}
}

// WithExecPath sets the Chrome binary. Empty means chromedp's lookup.
func WithExecPath(path string) ChromeOption {
	return func(c *Chrome) {
		c.execPath = path
	}
}

// WithUserDataDir sets the browser profile directory. Empty means a
// temporary profile removed on Close. A profile directory can only be
// used by one browser process at a time.
func WithUserDataDir(dir string) ChromeOption {
	return func(c *Chrome) {
		c.dataDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ChromeOption {
	return func(c *Chrome) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChrome starts a browser process. It lives until Close or until ctx
// is canceled.
func NewChrome(ctx context.Context, opts ...ChromeOption) (*Chrome, error) {
	c := &Chrome{
		headless: true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", c.headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(c.userAgent))
	}
	if c.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.execPath))
	}
	if c.dataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(c.dataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			c.logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
		}),
	)

	// The first Run starts the process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	c.allocCancel = allocCancel
	c.browserCtx = browserCtx
	c.browserCancel = browserCancel
	return c, nil
}

// NewSession opens a tab in a new browser context of its own, so cookies,
// storage and cache never carry over between sessions. The context is
// disposed when ctx ends or when the session is closed, whichever comes
// first.
func (c *Chrome) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(c.browserCtx, chromedp.WithNewBrowserContext())
	stop := context.AfterFunc(ctx, cancel)
	if err := chromedp.Run(tabCtx); err != nil {
		stop()
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	return &chromeSession{ctx: tabCtx, cancel: cancel, stop: stop}, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}

type chromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool

	once sync.Once
}

func (s *chromeSession) run(actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	return chromedp.Run(s.ctx, actions...)
}

func (s *chromeSession) Navigate(url string) error {
	return s.run(chromedp.Navigate(url))
}

func (s *chromeSession) Wait(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return s.run(chromedp.Sleep(d))
}

func (s *chromeSession) WaitReady(maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	for {
		var state string
		if err := s.run(chromedp.Evaluate(`document.readyState`, &state)); err != nil {
			return err
		}
		if state == "complete" {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrReadyTimeout
		}
		if err := s.Wait(readyPollInterval); err != nil {
			return err
		}
	}
}

func (s *chromeSession) HTML() (string, error) {
	var html string
	if err := s.run(chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *chromeSession) Click(ref ElementRef) error {
	var nodes []*cdp.Node
	if err := s.run(chromedp.Nodes(XPath(ref), &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("%w: %s", ErrElementNotFound, ref)
	}
	node := nodes[0]

	return s.run(
		chromedp.ScrollIntoView([]cdp.NodeID{node.NodeID}, chromedp.ByNodeID),
		chromedp.ActionFunc(func(ctx context.Context) error {
			box, err := dom.GetBoxModel().WithNodeID(node.NodeID).Do(ctx)
			if err != nil {
				return err
			}
			x, y := center(box.Content)
			return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
		}),
		chromedp.MouseClickNode(node),
	)
}

func (s *chromeSession) Location() (string, error) {
	var loc string
	if err := s.run(chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (s *chromeSession) Close() error {
	s.once.Do(func() {
		s.stop()
		s.cancel()
	})
	return nil
}

// center returns the midpoint of a content quad (four x,y pairs).
func center(quad dom.Quad) (float64, float64) {
	if len(quad) < 8 {
		return 0, 0
	}
	return (quad[0] + quad[2] + quad[4] + quad[6]) / 4, (quad[1] + quad[3] + quad[5] + quad[7]) / 4
}
