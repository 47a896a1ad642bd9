package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTab struct {
	id       string
	url      string
	urlErr   error
	released bool
}

func (t *fakeTab) URL(context.Context) (string, error)         { return t.url, t.urlErr }
func (t *fakeTab) Activate(context.Context) error              { return nil }
func (t *fakeTab) FocusInput(context.Context) error            { return nil }
func (t *fakeTab) SetDeepResearch(context.Context, bool) error { return nil }
func (t *fakeTab) Type(context.Context, string) error          { return nil }
func (t *fakeTab) AttachFile(context.Context, string) error    { return nil }
func (t *fakeTab) WaitUploaded(context.Context) error          { return nil }
func (t *fakeTab) Submit(context.Context) error                { return nil }
func (t *fakeTab) OuterHTML(context.Context) (string, error)   { return "", nil }
func (t *fakeTab) Release()                                    { t.released = true }

type fakePages struct {
	tabs      []TabInfo
	attachErr map[string]error
	attached  []string
}

func (p *fakePages) Current(context.Context) (TabInfo, error) {
	if len(p.tabs) == 0 {
		return TabInfo{}, ErrTabNotFound
	}
	return p.tabs[0], nil
}

func (p *fakePages) Tabs(context.Context) ([]TabInfo, error) { return p.tabs, nil }

func (p *fakePages) Attach(_ context.Context, info TabInfo) (Tab, error) {
	p.attached = append(p.attached, info.ID)
	if err := p.attachErr[info.ID]; err != nil {
		return nil, err
	}
	return &fakeTab{id: info.ID, url: info.URL}, nil
}

const targetSubstr = "perplexity.ai"

func TestFindReusesCachedTab(t *testing.T) {
	cached := &fakeTab{id: "c", url: "https://www.perplexity.ai/search/abc"}
	p := &fakePages{tabs: []TabInfo{{ID: "x", URL: "https://www.perplexity.ai/"}}}

	tab, err := Find(context.Background(), p, cached, targetSubstr)
	require.NoError(t, err)
	assert.Same(t, cached, tab)
	assert.Empty(t, p.attached)
	assert.False(t, cached.released)
}

func TestFindReleasesStaleCachedTab(t *testing.T) {
	cached := &fakeTab{id: "c", url: "https://news.ycombinator.com/"}
	p := &fakePages{tabs: []TabInfo{{ID: "1", URL: "https://www.perplexity.ai/"}}}

	tab, err := Find(context.Background(), p, cached, targetSubstr)
	require.NoError(t, err)
	assert.True(t, cached.released)
	assert.Equal(t, "1", tab.(*fakeTab).id)
}

func TestFindCachedTabGone(t *testing.T) {
	cached := &fakeTab{id: "c", urlErr: errors.New("session closed")}
	p := &fakePages{tabs: []TabInfo{{ID: "1", URL: "https://www.perplexity.ai/"}}}

	_, err := Find(context.Background(), p, cached, targetSubstr)
	require.NoError(t, err)
	assert.True(t, cached.released)
}

func TestFindEnumeratesTabs(t *testing.T) {
	p := &fakePages{tabs: []TabInfo{
		{ID: "1", URL: "https://github.com/"},
		{ID: "2", URL: "https://mail.google.com/"},
		{ID: "3", URL: "https://www.perplexity.ai/search/x"},
	}}

	tab, err := Find(context.Background(), p, nil, targetSubstr)
	require.NoError(t, err)
	assert.Equal(t, "3", tab.(*fakeTab).id)
	assert.Equal(t, []string{"3"}, p.attached)
}

func TestFindSkipsTabsThatFailToAttach(t *testing.T) {
	p := &fakePages{
		tabs: []TabInfo{
			{ID: "1", URL: "https://www.perplexity.ai/a"},
			{ID: "2", URL: "https://www.perplexity.ai/b"},
		},
		attachErr: map[string]error{"1": errors.New("detached")},
	}

	tab, err := Find(context.Background(), p, nil, targetSubstr)
	require.NoError(t, err)
	assert.Equal(t, "2", tab.(*fakeTab).id)
	assert.Equal(t, []string{"1", "2"}, p.attached)
}

func TestFindNotFound(t *testing.T) {
	p := &fakePages{tabs: []TabInfo{{ID: "1", URL: "https://example.com/"}}}

	_, err := Find(context.Background(), p, nil, targetSubstr)
	assert.ErrorIs(t, err, ErrTabNotFound)

	_, err = Find(context.Background(), &fakePages{}, nil, targetSubstr)
	assert.ErrorIs(t, err, ErrTabNotFound)
}
