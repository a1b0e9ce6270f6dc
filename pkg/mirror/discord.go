// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// sourceAPI is the slice of the Discord REST API the fetcher needs. It
// exists so tests can inject a fake instead of a live session.
type sourceAPI interface {
	ChannelMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
}

// discordAPI is the production implementation backed by a discordgo session.
// The session is REST-only; no gateway connection is opened.
type discordAPI struct {
	session *discordgo.Session
}

func newDiscordAPI(token string) (*discordAPI, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &discordAPI{session: session}, nil
}

func (d *discordAPI) ChannelMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	return d.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
}

func (d *discordAPI) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	return d.session.Channel(channelID, discordgo.WithContext(ctx))
}

// httpStatus extracts the HTTP status code from a Discord REST error, or 0
// when the error carries none (transport failures, nil responses).
func httpStatus(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}
