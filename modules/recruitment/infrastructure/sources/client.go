// Package sources reads the recruitment backend's list endpoints. The
// backend owns all pipeline state; these clients only fetch point-in-time
// snapshots for the SLA board to classify.
package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/slatrack/pkg/configuration"
)

// Fetcher is the board's view of the upstream. Tests substitute their own.
type Fetcher interface {
	Requisitions(ctx context.Context) ([]Requisition, error)
	Candidates(ctx context.Context) ([]Candidate, error)
	Interviews(ctx context.Context) ([]Interview, error)
	Probations(ctx context.Context) ([]Probation, error)
}

type Client struct {
	http *http.Client
	opts configuration.UpstreamOptions
	log  *logrus.Logger
}

func NewClient(opts configuration.UpstreamOptions, log *logrus.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
		log:  log,
	}
}

func (c *Client) Requisitions(ctx context.Context) ([]Requisition, error) {
	var out []Requisition
	if err := c.getJSON(ctx, c.opts.Requisitions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Candidates(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	if err := c.getJSON(ctx, c.opts.Candidates, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Interviews(ctx context.Context) ([]Interview, error) {
	var out []Interview
	if err := c.getJSON(ctx, c.opts.Interviews, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Probations(ctx context.Context) ([]Probation, error) {
	var out []Probation
	if err := c.getJSON(ctx, c.opts.Probations, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	url := c.opts.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "building request for %s", path)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.AuthToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "fetching %s", path)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("fetching %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s response", path)
	}
	return nil
}
