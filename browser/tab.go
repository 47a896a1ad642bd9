package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"go.aimuz.me/murmur/internal/faults"
)

// XPath selectors for the chat page controls.
const (
	SelInput          = `//div[@contenteditable='true' and @role='textbox']`
	SelResearchToggle = `//button[@aria-label='Research' and @role='radio']`
	SelSearchToggle   = `//button[@aria-label='Search' and @role='radio']`
	SelFileInput      = `//input[@type='file']`
	SelUploadChip     = `//button[@data-testid='remove-uploaded-file']`
	SelUploadFallback = `//img[contains(@src,'blob:')] | //div[contains(@class,'preview')] | //button[contains(@aria-label,'Remove')]`
	SelSubmit         = `//button[@aria-label='Submit']`
)

// Tab is an attached page.
type Tab interface {
	// URL returns the live URL of the page.
	URL(ctx context.Context) (string, error)
	// Activate brings the tab and the browser window to the front.
	Activate(ctx context.Context) error
	FocusInput(ctx context.Context) error
	SetDeepResearch(ctx context.Context, on bool) error
	Type(ctx context.Context, text string) error
	// AttachFile sets the file on the page's file input and checks that
	// the page accepted it.
	AttachFile(ctx context.Context, path string) error
	// WaitUploaded blocks until the page shows an upload preview.
	WaitUploaded(ctx context.Context) error
	Submit(ctx context.Context) error
	OuterHTML(ctx context.Context) (string, error)
	// Release detaches from the tab, leaving it open.
	Release()
}

type chromeTab struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	info   TabInfo
}

func (t *chromeTab) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func (t *chromeTab) URL(ctx context.Context) (string, error) {
	var url string
	if err := t.run(ctx, t.opts.QueryTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("read tab url: %w", err)
	}
	return url, nil
}

func (t *chromeTab) Activate(ctx context.Context) error {
	if err := t.run(ctx, t.opts.QueryTimeout, page.BringToFront()); err != nil {
		return fmt.Errorf("bring tab to front: %w", err)
	}
	if err := ActivateApp(ctx, t.opts.AppName); err != nil {
		slog.Warn("activate browser app", "app", t.opts.AppName, "error", err)
	}
	select {
	case <-time.After(t.opts.Settle):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (t *chromeTab) FocusInput(ctx context.Context) error {
	err := t.run(ctx, t.opts.QueryTimeout,
		chromedp.WaitVisible(SelInput),
		chromedp.Click(SelInput),
	)
	if err != nil {
		return faults.Dom("focus input", SelInput, err)
	}
	return nil
}

func (t *chromeTab) SetDeepResearch(ctx context.Context, on bool) error {
	sel := SelSearchToggle
	if on {
		sel = SelResearchToggle
	}

	var state string
	var ok bool
	err := t.run(ctx, t.opts.QueryTimeout, chromedp.AttributeValue(sel, "data-state", &state, &ok))
	if err != nil {
		return faults.Dom("read mode toggle", sel, err)
	}
	if ok && state == "checked" {
		return nil
	}
	if err := t.run(ctx, t.opts.QueryTimeout, chromedp.Click(sel)); err != nil {
		return faults.Dom("click mode toggle", sel, err)
	}
	return nil
}

func (t *chromeTab) Type(ctx context.Context, text string) error {
	err := t.run(ctx, t.opts.QueryTimeout,
		chromedp.Focus(SelInput),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.InsertText(text).Do(ctx)
		}),
	)
	if err == nil {
		return nil
	}
	slog.Debug("insert text failed, sending keys", "error", err)
	if err := t.run(ctx, t.opts.QueryTimeout, chromedp.SendKeys(SelInput, text)); err != nil {
		return faults.Dom("type message", SelInput, err)
	}
	return nil
}

const clearFileInputsJS = `document.querySelectorAll("input[type=file]").forEach(i => { i.value = "" }); true`

const countFilesJS = `Array.from(document.querySelectorAll("input[type=file]")).reduce((n, i) => n + (i.files ? i.files.length : 0), 0)`

func (t *chromeTab) AttachFile(ctx context.Context, path string) error {
	var cleared bool
	if err := t.run(ctx, t.opts.QueryTimeout, chromedp.Evaluate(clearFileInputsJS, &cleared)); err != nil {
		slog.Debug("clear file inputs", "error", err)
	}

	err := t.run(ctx, t.opts.QueryTimeout,
		chromedp.SetUploadFiles(SelFileInput, []string{path}, chromedp.NodeReady),
	)
	if err != nil {
		return faults.Dom("set upload file", SelFileInput, err)
	}

	var n int
	if err := t.run(ctx, t.opts.QueryTimeout, chromedp.Evaluate(countFilesJS, &n)); err != nil {
		return faults.Dom("verify upload file", SelFileInput, err)
	}
	if n == 0 {
		return faults.Dom("verify upload file", SelFileInput, errors.New("file input is empty"))
	}
	return nil
}

func (t *chromeTab) WaitUploaded(ctx context.Context) error {
	err := t.run(ctx, t.opts.UploadTimeout, chromedp.WaitVisible(SelUploadChip))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if ferr := t.run(ctx, 2*time.Second, chromedp.WaitReady(SelUploadFallback)); ferr == nil {
		slog.Debug("upload detected by fallback indicator")
		return nil
	}
	return faults.Dom("wait for upload", SelUploadChip, err)
}

func (t *chromeTab) Submit(ctx context.Context) error {
	err := t.run(ctx, t.opts.QueryTimeout,
		chromedp.ScrollIntoView(SelSubmit),
		chromedp.Click(SelSubmit, chromedp.NodeVisible),
	)
	if err == nil {
		return nil
	}
	slog.Debug("mouse click on submit failed, using script click", "error", err)

	var clicked bool
	if jerr := t.run(ctx, t.opts.QueryTimeout, chromedp.Evaluate(clickXPathJS(SelSubmit), &clicked)); jerr != nil || !clicked {
		return faults.Dom("click submit", SelSubmit, err)
	}
	return nil
}

func (t *chromeTab) OuterHTML(ctx context.Context) (string, error) {
	var html string
	if err := t.run(ctx, t.opts.QueryTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", faults.Dom("read page html", "html", err)
	}
	return html, nil
}

func (t *chromeTab) Release() {
	detach(t.ctx)
	t.cancel()
}

func clickXPathJS(xpath string) string {
	q, _ := json.Marshal(xpath)
	return `(() => {
	const el = document.evaluate(` + string(q) + `, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el) return false;
	el.click();
	return true;
})()`
}

// ActivateApp raises a macOS application by name.
func ActivateApp(ctx context.Context, app string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	script := fmt.Sprintf("tell application %q to activate", app)
	if out, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w: %s", err, out)
	}
	return nil
}
