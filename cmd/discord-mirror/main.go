// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command discord-mirror copies new messages from one or more Discord
// channels into a Slack channel via an incoming webhook. Each invocation is
// a single pass: resolve the incremental-fetch watermark from Tower run
// history, fetch and filter messages, convert Discord markdown to Slack
// mrkdwn, and issue one batched Block Kit post.
package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tower/discord-slack-mirror/pkg/mirror"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()

	log.Debug().Str("tag", Tag).Str("commit", Commit).Str("build_time", BuildTime).Msg("Starting discord-mirror")

	cfg, err := mirror.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	m, err := mirror.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize pipeline")
	}

	summary, err := m.Run(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Mirror run failed")
	}

	for _, ch := range summary.Channels {
		log.Info().
			Str("channel_id", ch.ChannelID).
			Str("channel_name", ch.ChannelName).
			Int("fetched", ch.Fetched).
			Int("new", ch.New).
			Msg("Channel summary")
	}
	log.Info().
		Int("total_new", summary.TotalNew).
		Int("messages_posted", summary.MessagesPosted).
		Int("blocks_posted", summary.BlocksPosted).
		Msg("Done")
}
