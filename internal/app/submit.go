package app

import (
	"context"
	"log/slog"

	"go.aimuz.me/murmur/browser"
	"go.aimuz.me/murmur/internal/types"
)

// submit types the result into the target tab and sends it. Every step is
// attempted even if an earlier one failed, as long as it can still make
// sense.
func (d *Dispatcher) submit(ctx context.Context, log *slog.Logger, res types.ProcessingResult) {
	msg := BuildMessage(res.Text, res.Emotions, d.opts.FormatHint)
	deep := IsDeepResearch(res.RawTranscript, d.opts.DeepResearchKeyword)

	notFound := "No " + d.opts.TargetURL + " tab found."
	if d.deps.Pages == nil {
		d.fallbackToClipboard(log, notFound, msg)
		return
	}

	tab, err := browser.Find(ctx, d.deps.Pages, d.tab, d.opts.TargetURL)
	if err != nil {
		d.tab = nil
		log.Error("locate tab", "target", d.opts.TargetURL, "error", err)
		d.fallbackToClipboard(log, notFound, msg)
		return
	}
	d.tab = tab

	if err := tab.Activate(ctx); err != nil {
		log.Warn("submit step failed", "step", "activate", "error", err)
	}

	inputOK := true
	if err := tab.FocusInput(ctx); err != nil {
		inputOK = false
		log.Warn("submit step failed", "step", "find input", "error", err)
	}

	if err := tab.SetDeepResearch(ctx, deep); err != nil {
		log.Warn("submit step failed", "step", "mode toggle", "deep_research", deep, "error", err)
	}

	typed := false
	if inputOK {
		if err := tab.Type(ctx, msg); err != nil {
			log.Warn("submit step failed", "step", "type", "error", err)
		} else {
			typed = true
		}
	}

	attached := false
	if res.ScreenshotPath != "" {
		if err := tab.AttachFile(ctx, res.ScreenshotPath); err != nil {
			log.Warn("submit step failed", "step", "attach", "error", err)
		} else {
			attached = true
			if err := tab.WaitUploaded(ctx); err != nil {
				log.Warn("submit step failed", "step", "wait upload", "error", err)
			}
		}
	}

	if !typed && !attached {
		log.Error("nothing entered, not submitting")
		d.fallbackToClipboard(log, "Could not enter the message.", msg)
		return
	}

	if err := tab.Submit(ctx); err != nil {
		log.Error("submit step failed", "step", "submit", "error", err)
		return
	}

	d.deps.Signaler.Submit()
	log.Info("submitted",
		"deep_research", deep,
		"chars", len(msg),
		"screenshot", attached,
		"emotions", len(res.Emotions))
}

func (d *Dispatcher) fallbackToClipboard(log *slog.Logger, note, msg string) {
	if d.deps.Clipboard != nil {
		if err := d.deps.Clipboard(msg); err != nil {
			log.Warn("copy message to clipboard", "error", err)
		} else {
			note += " Message copied to clipboard."
		}
	}
	d.deps.Signaler.Notify("murmur", note)
}
