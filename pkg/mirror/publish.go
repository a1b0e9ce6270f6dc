// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mirror

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// Publisher posts rendered blocks to a Slack incoming webhook. One run makes
// at most one post; chunking across Slack's block-count limit is
// intentionally not implemented.
type Publisher struct {
	webhookURL string
	log        zerolog.Logger
}

// NewPublisher creates a publisher for the given webhook URL.
func NewPublisher(webhookURL string, log zerolog.Logger) *Publisher {
	return &Publisher{
		webhookURL: webhookURL,
		log:        log.With().Str("component", "publisher").Logger(),
	}
}

// Publish posts all blocks in a single batched webhook call. Zero blocks is
// a logged no-op. A non-2xx response is fatal for the run.
func (p *Publisher) Publish(ctx context.Context, blocks []slack.Block) error {
	if len(blocks) == 0 {
		p.log.Info().Msg("No blocks to post")
		return nil
	}

	msg := &slack.WebhookMessage{
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
	if err := slack.PostWebhookContext(ctx, p.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to post to Slack webhook: %w", err)
	}

	p.log.Info().Int("blocks", len(blocks)).Msg("Posted to Slack")
	return nil
}
