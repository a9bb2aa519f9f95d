// Package transport implements the HTTP peer transport: the evaluator-side
// fan-out client and the worker-side server with stake-weighted admission.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tranmanhhung/sn102/internal/domain"
	"github.com/tranmanhhung/sn102/pkg/logger"
)

// respondPath is the worker endpoint the client posts prompts to.
const respondPath = "/v1/respond"

// AuthHeader carries the shared bearer token on worker requests.
const AuthHeader = "X-SN102-Token"

// maxResponseBytes bounds how much of a worker reply the client will read.
const maxResponseBytes = 1 << 20

// respondRequest is the wire request for one dispatch.
type respondRequest struct {
	RequestID string  `json:"request_id"`
	Prompt    string  `json:"prompt"`
	Stake     float64 `json:"stake,omitempty"`
}

// respondResponse is the wire reply from a worker.
type respondResponse struct {
	RequestID string `json:"request_id"`
	Output    string `json:"output"`
}

// ClientConfig configures the fan-out client.
type ClientConfig struct {
	// AuthToken, when set, is sent on every request.
	AuthToken string

	// Stake is the requester's network stake, forwarded so workers can order
	// their admission queue.
	Stake float64
}

// Client dispatches one prompt to many workers over HTTP and collects their
// candidates. Worker IDs are base URLs, e.g. "http://10.0.0.7:8591".
type Client struct {
	cfg  ClientConfig
	http *http.Client
	log  logger.Logger
}

// NewClient builds a fan-out client. The per-dispatch timeout is passed to
// Dispatch, so the underlying http.Client carries none of its own.
func NewClient(cfg ClientConfig, log logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  log.Named("transport"),
	}
}

// Dispatch posts the prompt to every worker concurrently and returns one
// candidate per worker, in the given worker order. A worker that fails,
// times out, or replies malformed yields an absent candidate; Dispatch itself
// never fails. Latency is measured here, from request start to reply receipt.
func (c *Client) Dispatch(ctx context.Context, requestID, prompt string, workers []domain.WorkerID, timeout time.Duration) []domain.Candidate {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	candidates := make([]domain.Candidate, len(workers))

	g, ctx := errgroup.WithContext(ctx)
	for i, worker := range workers {
		g.Go(func() error {
			candidates[i] = c.dispatchOne(ctx, requestID, prompt, worker)
			return nil
		})
	}
	// Workers only ever return nil; the group is used for the bounded wait.
	_ = g.Wait()

	return candidates
}

// dispatchOne sends one request and converts any failure into an absent
// candidate.
func (c *Client) dispatchOne(ctx context.Context, requestID, prompt string, worker domain.WorkerID) domain.Candidate {
	candidate := domain.Candidate{Worker: worker}

	start := time.Now()
	output, err := c.post(ctx, string(worker), requestID, prompt)
	if err != nil {
		c.log.Debug(ctx, "worker dispatch failed",
			logger.String("worker", string(worker)),
			logger.String("request_id", requestID),
			logger.Error(err))
		return candidate
	}

	candidate.Output = &output
	candidate.Latency = time.Since(start)
	return candidate
}

func (c *Client) post(ctx context.Context, baseURL, requestID, prompt string) (string, error) {
	body, err := json.Marshal(respondRequest{
		RequestID: requestID,
		Prompt:    prompt,
		Stake:     c.cfg.Stake,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+respondPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthToken != "" {
		req.Header.Set(AuthHeader, c.cfg.AuthToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("worker returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var reply respondResponse
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if reply.Output == "" {
		return "", fmt.Errorf("worker returned empty output")
	}
	return reply.Output, nil
}
