package browser

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

var ErrTabNotFound = errors.New("target tab not found")

// Pages enumerates and attaches tabs. *Channel implements it.
type Pages interface {
	Current(ctx context.Context) (TabInfo, error)
	Tabs(ctx context.Context) ([]TabInfo, error)
	Attach(ctx context.Context, info TabInfo) (Tab, error)
}

// Find returns a tab whose URL contains substr. The cached tab is reused when
// it still matches; otherwise it is released and the current tab, then every
// tab, is tried. The caller owns the returned tab, which may be cached itself.
func Find(ctx context.Context, p Pages, cached Tab, substr string) (Tab, error) {
	if cached != nil {
		url, err := cached.URL(ctx)
		if err == nil && strings.Contains(url, substr) {
			return cached, nil
		}
		slog.Debug("cached tab no longer matches", "url", url, "error", err)
		cached.Release()
	}

	current, err := p.Current(ctx)
	if err == nil && strings.Contains(current.URL, substr) {
		tab, err := p.Attach(ctx, current)
		if err == nil {
			return tab, nil
		}
		slog.Warn("attach current tab", "error", err)
	}

	tabs, err := p.Tabs(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range tabs {
		if info.ID == current.ID || !strings.Contains(info.URL, substr) {
			continue
		}
		tab, err := p.Attach(ctx, info)
		if err != nil {
			slog.Warn("attach tab", "id", info.ID, "error", err)
			continue
		}
		return tab, nil
	}
	return nil, ErrTabNotFound
}
