// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mirror

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// jobName is the logical job name used for run-history lookups.
const jobName = "discord-mirror"

// watermarkResolver yields the lower time bound for new messages. It never
// fails; degraded resolution falls back to a fixed lookback.
type watermarkResolver interface {
	Resolve(ctx context.Context, jobName, environment string) time.Time
}

// blockPublisher posts a run's rendered blocks to the destination.
type blockPublisher interface {
	Publish(ctx context.Context, blocks []slack.Block) error
}

// ChannelSummary reports per-channel fetch counts for one run.
type ChannelSummary struct {
	ChannelID   string
	ChannelName string
	// Fetched is the message count before the watermark filter.
	Fetched int
	// New is the message count after the watermark filter.
	New int
}

// Summary describes what a single run did.
type Summary struct {
	Watermark time.Time
	Channels  []ChannelSummary
	// TotalNew counts messages past the watermark across all channels.
	TotalNew int
	// MessagesPosted counts messages that produced blocks; messages whose
	// converted content is empty are suppressed at render time.
	MessagesPosted int
	// BlocksPosted counts blocks in the webhook post, zero when nothing
	// survived rendering.
	BlocksPosted int
}

// Mirror is the one-shot pipeline: resolve watermark, fetch channels in
// order, sort globally by timestamp, render, publish once.
type Mirror struct {
	cfg       *Config
	resolver  watermarkResolver
	fetcher   *Fetcher
	publisher blockPublisher
	log       zerolog.Logger
}

// New wires the production pipeline from a validated configuration.
func New(cfg *Config, log zerolog.Logger) (*Mirror, error) {
	api, err := newDiscordAPI(cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	return &Mirror{
		cfg:       cfg,
		resolver:  NewRunHistoryClient(cfg.TowerURL, cfg.TowerAPIKey, log),
		fetcher:   NewFetcher(api, log),
		publisher: NewPublisher(cfg.SlackWebhookURL, log),
		log:       log.With().Str("component", "mirror").Logger(),
	}, nil
}

// Run executes one mirror pass and returns its summary. Inaccessible
// channels and watermark degradation are tolerated; any other fetch or
// publish failure aborts the run.
func (m *Mirror) Run(ctx context.Context) (*Summary, error) {
	watermark := m.resolver.Resolve(ctx, jobName, m.cfg.Environment)
	m.log.Info().Time("watermark", watermark).Msg("Fetching messages since watermark")

	summary := &Summary{Watermark: watermark}
	var all []ChannelMessage
	for _, channelID := range m.cfg.ChannelIDs {
		result, err := m.fetcher.FetchChannel(ctx, channelID, watermark)
		if err != nil {
			return nil, err
		}
		summary.Channels = append(summary.Channels, ChannelSummary{
			ChannelID:   result.ChannelID,
			ChannelName: result.ChannelName,
			Fetched:     result.Fetched,
			New:         len(result.Messages),
		})
		all = append(all, result.Messages...)
	}
	summary.TotalNew = len(all)

	// Global chronological order regardless of per-channel fetch order.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Message.Timestamp.Before(all[j].Message.Timestamp)
	})

	m.log.Info().
		Int("total_new", summary.TotalNew).
		Int("channels", len(m.cfg.ChannelIDs)).
		Msg("Fetch complete")

	var blocks []slack.Block
	for _, cm := range all {
		rendered := renderMessage(cm)
		if len(rendered) == 0 {
			continue
		}
		summary.MessagesPosted++
		blocks = append(blocks, rendered...)
	}

	if len(all) == 0 {
		m.log.Info().Msg("No new messages to post")
		return summary, nil
	}
	if err := m.publisher.Publish(ctx, blocks); err != nil {
		return nil, err
	}
	summary.BlocksPosted = len(blocks)
	return summary, nil
}
