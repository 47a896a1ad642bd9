package emotion

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.aimuz.me/murmur/internal/faults"
	"go.aimuz.me/murmur/internal/types"
)

const predictionsJSON = `[{"results":{"predictions":[{"models":{"prosody":{"grouped_predictions":[{"predictions":[{"emotions":[
{"name":"Calmness","score":0.42},{"name":"Interest","score":0.61},{"name":"Boredom","score":0.05}]}]}]}}}]}}]`

type fakeHume struct {
	statuses []string
	polls    atomic.Int32
	apiKey   string
	fileName string
	config   string
}

func (f *fakeHume) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.apiKey = r.Header.Get("X-Hume-Api-Key")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v0/batch/jobs":
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			f.config = r.FormValue("json")
			if fh := r.MultipartForm.File["file"]; len(fh) > 0 {
				f.fileName = fh[0].Filename
			}
		}
		io.WriteString(w, `{"job_id":"job-1"}`)
	case r.URL.Path == "/v0/batch/jobs/job-1":
		n := int(f.polls.Add(1)) - 1
		status := f.statuses[min(n, len(f.statuses)-1)]
		io.WriteString(w, `{"state":{"status":"`+status+`"}}`)
	case r.URL.Path == "/v0/batch/jobs/job-1/predictions":
		io.WriteString(w, predictionsJSON)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "hume-key", BaseURL: srv.URL, PollInterval: time.Millisecond})
}

func audioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio_x.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))
	return path
}

func TestAnalyze(t *testing.T) {
	h := &fakeHume{statuses: []string{"QUEUED", "IN_PROGRESS", "COMPLETED"}}
	c := newTestClient(t, h)

	scores, err := c.Analyze(context.Background(), audioFile(t))
	require.NoError(t, err)
	assert.Len(t, scores, 3)
	assert.Equal(t, "Calmness", scores[0].Name)
	assert.EqualValues(t, 3, h.polls.Load())
	assert.Equal(t, "hume-key", h.apiKey)
	assert.Equal(t, "audio_x.wav", h.fileName)
	assert.JSONEq(t, `{"models":{"prosody":{}}}`, h.config)
}

func TestAnalyzeFailedJob(t *testing.T) {
	c := newTestClient(t, &fakeHume{statuses: []string{"FAILED"}})

	_, err := c.Analyze(context.Background(), audioFile(t))
	assert.ErrorIs(t, err, ErrJobFailed)
	assert.True(t, faults.Is(err, faults.KindRemoteAPI))
}

func TestAnalyzeGivesUpAfterMaxPolls(t *testing.T) {
	h := &fakeHume{statuses: []string{"IN_PROGRESS"}}
	c := newTestClient(t, h)

	_, err := c.Analyze(context.Background(), audioFile(t))
	require.Error(t, err)
	assert.EqualValues(t, DefaultMaxPolls, h.polls.Load())
}

func TestAnalyzeHTTPError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	_, err := c.Analyze(context.Background(), audioFile(t))
	require.Error(t, err)
	assert.Equal(t, faults.KindRemoteAPI, faults.KindOf(err))
	assert.Contains(t, err.Error(), "status 401")
}

func TestAnalyzeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := New(Config{APIKey: "hume-key", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := c.Analyze(context.Background(), audioFile(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, faults.Is(err, faults.KindRemoteAPI))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
	assert.Equal(t, DefaultMaxPolls, c.cfg.MaxPolls)
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
}

func TestFilter(t *testing.T) {
	in := []types.EmotionScore{
		{Name: "Joy", Score: 0.3},
		{Name: "Calmness", Score: 0.5},
		{Name: "Boredom", Score: 0.05},
		{Name: "Interest", Score: 0.3},
		{Name: "Doubt", Score: 0.1},
	}

	tests := []struct {
		name     string
		minScore float64
		topN     int
		want     []string
	}{
		{"top three", 0.1, 3, []string{"Calmness", "Joy", "Interest"}},
		{"threshold inclusive", 0.1, 10, []string{"Calmness", "Joy", "Interest", "Doubt"}},
		{"high threshold", 0.4, 3, []string{"Calmness"}},
		{"nothing passes", 0.9, 3, []string{}},
		{"top zero", 0, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(in, tt.minScore, tt.topN)
			names := make([]string, 0, len(got))
			for _, s := range got {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	assert.Equal(t, "Joy", in[0].Name, "input must not be reordered")
}
