// Package emotion scores vocal prosody with the Hume batch API.
package emotion

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.aimuz.me/murmur/internal/faults"
	"go.aimuz.me/murmur/internal/types"
)

const (
	DefaultBaseURL      = "https://api.hume.ai"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxPolls     = 10

	// DefaultTimeout bounds a whole Analyze call, polls included.
	DefaultTimeout = 5 * time.Second
)

var ErrJobFailed = errors.New("hume job failed")

// Analyzer scores an audio file.
type Analyzer interface {
	Analyze(ctx context.Context, path string) ([]types.EmotionScore, error)
}

// Config holds configuration for Client.
type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	MaxPolls     int
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Client talks to the Hume batch job endpoints.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Hume client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: hc}
}

// Analyze submits a prosody job, waits for it and returns the raw scores in
// the order the service lists them. The whole call is bounded by
// Config.Timeout.
func (c *Client) Analyze(ctx context.Context, path string) ([]types.EmotionScore, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	id, err := c.submit(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx, id); err != nil {
		return nil, err
	}
	return c.predictions(ctx, id)
}

func (c *Client) submit(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if err := mw.WriteField("json", `{"models":{"prosody":{}}}`); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var job struct {
		JobID string `json:"job_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v0/batch/jobs", mw.FormDataContentType(), &body, &job); err != nil {
		return "", err
	}
	if job.JobID == "" {
		return "", faults.RemoteAPI("submit emotion job", 0, errors.New("response has no job_id"))
	}
	return job.JobID, nil
}

func (c *Client) wait(ctx context.Context, id string) error {
	for i := 0; i < c.cfg.MaxPolls; i++ {
		var job struct {
			State struct {
				Status string `json:"status"`
			} `json:"state"`
		}
		if err := c.do(ctx, http.MethodGet, "/v0/batch/jobs/"+id, "", nil, &job); err != nil {
			return err
		}
		switch job.State.Status {
		case "COMPLETED":
			return nil
		case "FAILED":
			return faults.RemoteAPI("poll emotion job", 0, ErrJobFailed)
		}

		select {
		case <-ctx.Done():
			return faults.RemoteAPI("poll emotion job", 0, ctx.Err())
		case <-time.After(c.cfg.PollInterval):
		}
	}
	return faults.RemoteAPI("poll emotion job", 0, fmt.Errorf("job %s not done after %d polls", id, c.cfg.MaxPolls))
}

// predictionsResponse mirrors the nesting of the predictions payload down to
// the first prosody group.
type predictionsResponse []struct {
	Results struct {
		Predictions []struct {
			Models struct {
				Prosody struct {
					GroupedPredictions []struct {
						Predictions []struct {
							Emotions []types.EmotionScore `json:"emotions"`
						} `json:"predictions"`
					} `json:"grouped_predictions"`
				} `json:"prosody"`
			} `json:"models"`
		} `json:"predictions"`
	} `json:"results"`
}

func (c *Client) predictions(ctx context.Context, id string) ([]types.EmotionScore, error) {
	var resp predictionsResponse
	if err := c.do(ctx, http.MethodGet, "/v0/batch/jobs/"+id+"/predictions", "", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 || len(resp[0].Results.Predictions) == 0 {
		return nil, nil
	}
	groups := resp[0].Results.Predictions[0].Models.Prosody.GroupedPredictions
	if len(groups) == 0 || len(groups[0].Predictions) == 0 {
		slog.Debug("no prosody predictions", "job", id)
		return nil, nil
	}
	return groups[0].Predictions[0].Emotions, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-Hume-Api-Key", c.cfg.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return faults.RemoteAPI(method+" "+path, 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return faults.RemoteAPI(method+" "+path, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		return faults.RemoteAPI(method+" "+path, resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(data))))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return faults.RemoteAPI(method+" "+path, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Filter keeps scores at or above minScore, sorted by descending score with
// ties kept in their original order, and truncated to topN.
func Filter(scores []types.EmotionScore, minScore float64, topN int) []types.EmotionScore {
	out := make([]types.EmotionScore, 0, len(scores))
	for _, s := range scores {
		if s.Score >= minScore {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b types.EmotionScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if topN >= 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
