// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mirror

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// fetchLimit is the page size for the channel message-list endpoint.
const fetchLimit = 100

// ChannelMessage pairs a fetched Discord message with the channel metadata
// resolved at fetch time. The underlying message is never mutated; guild ID
// lives here because the message-list endpoint does not populate it.
type ChannelMessage struct {
	Message     *discordgo.Message
	ChannelName string
	GuildID     string
}

// ChannelFetchResult reports the outcome of fetching a single channel.
type ChannelFetchResult struct {
	ChannelID   string
	ChannelName string
	// Fetched counts messages returned by the API before the watermark filter.
	Fetched int
	// Messages holds the messages newer than the watermark.
	Messages []ChannelMessage
}

// Fetcher retrieves recent messages for source channels and filters them by
// the run's watermark.
type Fetcher struct {
	api sourceAPI
	log zerolog.Logger
}

// NewFetcher creates a fetcher over the given source API.
func NewFetcher(api sourceAPI, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		api: api,
		log: log.With().Str("component", "fetcher").Logger(),
	}
}

// FetchChannel lists recent messages for one channel and keeps those with a
// timestamp strictly after the watermark. An inaccessible channel (403/404)
// yields an empty result, not an error; any other failure is fatal for the
// run.
func (f *Fetcher) FetchChannel(ctx context.Context, channelID string, watermark time.Time) (*ChannelFetchResult, error) {
	name, guildID := f.channelInfo(ctx, channelID)
	log := f.log.With().Str("channel_id", channelID).Str("channel_name", name).Logger()
	log.Info().Msg("Fetching channel")

	messages, err := f.api.ChannelMessages(ctx, channelID, fetchLimit)
	if err != nil {
		switch httpStatus(err) {
		case http.StatusForbidden:
			log.Warn().Msg("No permission to read channel, skipping")
			return &ChannelFetchResult{ChannelID: channelID, ChannelName: name}, nil
		case http.StatusNotFound:
			log.Warn().Msg("Channel not found, skipping")
			return &ChannelFetchResult{ChannelID: channelID, ChannelName: name}, nil
		}
		return nil, fmt.Errorf("failed to fetch messages for channel %s: %w", channelID, err)
	}

	result := &ChannelFetchResult{
		ChannelID:   channelID,
		ChannelName: name,
		Fetched:     len(messages),
	}
	for _, msg := range messages {
		if !msg.Timestamp.After(watermark) {
			continue
		}
		result.Messages = append(result.Messages, ChannelMessage{
			Message:     msg,
			ChannelName: name,
			GuildID:     guildID,
		})
	}

	log.Info().
		Int("fetched", result.Fetched).
		Int("new", len(result.Messages)).
		Msg("Channel fetch complete")
	return result, nil
}

// channelInfo resolves the channel display name and guild ID. Best effort:
// any failure falls back to the raw channel ID and an empty guild ID.
func (f *Fetcher) channelInfo(ctx context.Context, channelID string) (name, guildID string) {
	channel, err := f.api.Channel(ctx, channelID)
	if err != nil || channel == nil {
		return channelID, ""
	}
	if channel.Name == "" {
		return channelID, channel.GuildID
	}
	return channel.Name, channel.GuildID
}
