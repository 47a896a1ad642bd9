package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// TabInfo describes a page target.
type TabInfo struct {
	ID    string
	URL   string
	Title string
}

// Options configures the channel and the tabs it attaches.
type Options struct {
	// AppName is the application activated after the tab is brought to
	// front, e.g. "Google Chrome".
	AppName       string
	QueryTimeout  time.Duration
	UploadTimeout time.Duration
	Settle        time.Duration
}

func (o *Options) setDefaults() {
	if o.AppName == "" {
		o.AppName = "Google Chrome"
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = 20 * time.Second
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = 20 * time.Second
	}
	if o.Settle <= 0 {
		o.Settle = 400 * time.Millisecond
	}
}

// Channel is a connection to a running browser.
type Channel struct {
	opts Options

	allocCancel context.CancelFunc
	ctx         context.Context // browser-level chromedp context
	cancel      context.CancelFunc
}

// Connect attaches to the browser at addr. Closing the channel disconnects
// without closing any tab.
func Connect(ctx context.Context, addr string, opts Options) (*Channel, error) {
	opts.setDefaults()

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.WithoutCancel(ctx), "http://"+addr)
	bctx, cancel := chromedp.NewContext(allocCtx)

	// The first call connects the websocket and binds it to bctx, so it must
	// not carry a deadline.
	errCh := make(chan error, 1)
	go func() {
		_, err := chromedp.Targets(bctx)
		errCh <- err
	}()
	select {
	case err := <-errCh:
		if err != nil {
			cancel()
			allocCancel()
			return nil, fmt.Errorf("connect to browser: %w", err)
		}
	case <-time.After(10 * time.Second):
		cancel()
		allocCancel()
		return nil, fmt.Errorf("connect to browser: timed out")
	case <-ctx.Done():
		cancel()
		allocCancel()
		return nil, ctx.Err()
	}

	slog.Info("connected to browser", "addr", addr)
	return &Channel{opts: opts, allocCancel: allocCancel, ctx: bctx, cancel: cancel}, nil
}

// Close disconnects from the browser. Tabs must be released first.
func (c *Channel) Close() {
	c.cancel()
	c.allocCancel()
}

// Tabs lists page targets in browser order.
func (c *Channel) Tabs(ctx context.Context) ([]TabInfo, error) {
	tctx, cancel := context.WithTimeout(c.ctx, c.opts.QueryTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	infos, err := chromedp.Targets(tctx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	var tabs []TabInfo
	for _, info := range infos {
		if info.Type != "page" {
			continue
		}
		tabs = append(tabs, TabInfo{ID: string(info.TargetID), URL: info.URL, Title: info.Title})
	}
	return tabs, nil
}

// Current returns the first page target, which is the most recently active
// tab.
func (c *Channel) Current(ctx context.Context) (TabInfo, error) {
	tabs, err := c.Tabs(ctx)
	if err != nil {
		return TabInfo{}, err
	}
	if len(tabs) == 0 {
		return TabInfo{}, ErrTabNotFound
	}
	return tabs[0], nil
}

// Attach opens a session on an existing tab.
func (c *Channel) Attach(ctx context.Context, info TabInfo) (Tab, error) {
	tabCtx, cancel := chromedp.NewContext(c.ctx, chromedp.WithTargetID(target.ID(info.ID)))
	t := &chromeTab{ctx: tabCtx, cancel: cancel, opts: c.opts, info: info}

	// Like Connect, the attaching Run owns the session lifetime.
	errCh := make(chan error, 1)
	go func() { errCh <- chromedp.Run(tabCtx) }()
	select {
	case err := <-errCh:
		if err != nil {
			t.Release()
			return nil, fmt.Errorf("attach tab %s: %w", info.ID, err)
		}
	case <-time.After(c.opts.QueryTimeout):
		t.Release()
		return nil, fmt.Errorf("attach tab %s: timed out", info.ID)
	case <-ctx.Done():
		t.Release()
		return nil, ctx.Err()
	}
	slog.Debug("attached tab", "id", info.ID, "url", info.URL)
	return t, nil
}

// detach ends the CDP session of a tab context without closing the tab.
func detach(tabCtx context.Context) {
	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Target == nil || c.Browser == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if id := c.Target.SessionID; id != "" {
		if err := target.DetachFromTarget().WithSessionID(id).Do(cdp.WithExecutor(ctx, c.Browser)); err != nil {
			slog.Debug("detach tab", "error", err)
		}
	}
	// Without a target, cancelling the context leaves the tab open.
	c.Target = nil
}
