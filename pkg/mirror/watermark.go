// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	// fallbackLookback bounds the fetch window when no authoritative
	// watermark can be resolved.
	fallbackLookback = 5 * time.Minute
	// runHistoryPageSize is the number of runs requested per lookup.
	runHistoryPageSize = 10
)

// runRecord is a single run in a run-history page. EndedAt is null for runs
// that have not finished.
type runRecord struct {
	Status  string     `json:"status"`
	EndedAt *time.Time `json:"ended_at"`
}

type listRunsResponse struct {
	Runs []runRecord `json:"runs"`
}

// RunHistoryClient resolves the incremental-fetch watermark from the Tower
// run-history API. Every failure mode degrades to a fixed lookback; a run
// always gets a watermark.
type RunHistoryClient struct {
	baseURL string
	token   string
	client  *http.Client
	now     func() time.Time
	log     zerolog.Logger
}

// NewRunHistoryClient creates a resolver against the given base URL (already
// normalized to end in /v1). An empty token disables lookups.
func NewRunHistoryClient(baseURL, token string, log zerolog.Logger) *RunHistoryClient {
	return &RunHistoryClient{
		baseURL: baseURL,
		token:   token,
		client:  http.DefaultClient,
		now:     time.Now,
		log:     log.With().Str("component", "run_history").Logger(),
	}
}

// Resolve returns the end time of the most recent exited run of the named
// job in the given environment, or now minus the fallback lookback when the
// history service is unreachable, unauthenticated, or has no qualifying run.
// Resolve never returns an error.
func (r *RunHistoryClient) Resolve(ctx context.Context, jobName, environment string) time.Time {
	if r.token == "" {
		r.log.Warn().Msg("Tower API key not set, using fallback lookback")
		return r.fallback()
	}

	ended, err := r.lastExitedRunEnd(ctx, jobName, environment)
	if err != nil {
		r.log.Warn().Err(err).Msg("Could not fetch last run time, using fallback lookback")
		return r.fallback()
	}
	if ended == nil {
		r.log.Warn().Msg("No previous successful runs found, using fallback lookback")
		return r.fallback()
	}

	r.log.Info().Time("ended_at", *ended).Msg("Resolved watermark from last successful run")
	return *ended
}

// lastExitedRunEnd queries one page of run history, newest first, and returns
// the first run with a non-null end time. A nil result with nil error means
// the page held no qualifying run.
func (r *RunHistoryClient) lastExitedRunEnd(ctx context.Context, jobName, environment string) (*time.Time, error) {
	query := url.Values{}
	query.Set("name", jobName)
	query.Set("environment", environment)
	query.Set("page", "1")
	query.Set("page_size", strconv.Itoa(runHistoryPageSize))
	query.Set("status", "exited")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/runs?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build run-history request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run-history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("run-history request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read run-history response: %w", err)
	}
	var page listRunsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode run-history response: %w", err)
	}

	for _, run := range page.Runs {
		if run.EndedAt != nil {
			ended := run.EndedAt.UTC()
			return &ended, nil
		}
	}
	return nil, nil
}

func (r *RunHistoryClient) fallback() time.Time {
	return r.now().UTC().Add(-fallbackLookback)
}
