// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mirror

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/slack-go/slack"
)

// fakeSourceAPI is an in-memory sourceAPI for fetcher and pipeline tests.
type fakeSourceAPI struct {
	// Messages maps channel ID to the canned message-list response.
	Messages map[string][]*discordgo.Message
	// MessagesErr maps channel ID to an error returned instead.
	MessagesErr map[string]error
	// Channels maps channel ID to the canned channel-info response.
	Channels map[string]*discordgo.Channel
	// ChannelErr maps channel ID to an error returned instead.
	ChannelErr map[string]error
}

func (f *fakeSourceAPI) ChannelMessages(_ context.Context, channelID string, _ int) ([]*discordgo.Message, error) {
	if err, ok := f.MessagesErr[channelID]; ok {
		return nil, err
	}
	return f.Messages[channelID], nil
}

func (f *fakeSourceAPI) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	if err, ok := f.ChannelErr[channelID]; ok {
		return nil, err
	}
	if ch, ok := f.Channels[channelID]; ok {
		return ch, nil
	}
	return nil, restError(http.StatusNotFound)
}

// restError builds a Discord REST error with the given status code.
func restError(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

// capturingPublisher records published block batches instead of posting.
type capturingPublisher struct {
	mu      sync.Mutex
	batches [][]slack.Block
	err     error
}

func (c *capturingPublisher) Publish(_ context.Context, blocks []slack.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.batches = append(c.batches, blocks)
	return nil
}

// fixedResolver returns a predetermined watermark.
type fixedResolver struct {
	watermark time.Time
}

func (f *fixedResolver) Resolve(_ context.Context, _, _ string) time.Time {
	return f.watermark
}

func mustParseTime(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		panic(err)
	}
	return ts
}
