// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mirror

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/slack-go/slack"

	"github.com/tower/discord-slack-mirror/pkg/mirror/slackfmt"
)

// renderMessage converts one mirrored message into Slack blocks: a section
// with the author, channel and converted content, a context line for
// replies, and a trailing divider. Messages whose converted content is empty
// produce no blocks at all.
func renderMessage(cm ChannelMessage) []slack.Block {
	msg := cm.Message
	content := slackfmt.Convert(msg.Content, messageMentions(msg))
	if content == "" {
		return nil
	}

	header := fmt.Sprintf("[%s] *%s*", slackDate(msg.Timestamp), authorName(msg))
	if cm.ChannelName != "" {
		header += " in #" + cm.ChannelName
	}
	text := slack.NewTextBlockObject(slack.MarkdownType, header+":\n"+content, false, false)

	var accessory *slack.Accessory
	if url := messageURL(cm.GuildID, msg.ChannelID, msg.ID); url != "" {
		button := slack.NewButtonBlockElement("", "",
			slack.NewTextBlockObject(slack.PlainTextType, "View in Discord", false, false))
		button.URL = url
		accessory = slack.NewAccessory(button)
	}

	blocks := []slack.Block{slack.NewSectionBlock(text, nil, accessory)}

	if replyText := replyContext(cm); replyText != "" {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, replyText, false, false)))
	}

	blocks = append(blocks, slack.NewDividerBlock())
	return blocks
}

// authorName picks the display name for a message author: server nickname,
// then global display name, then username.
func authorName(msg *discordgo.Message) string {
	if msg.Member != nil && msg.Member.Nick != "" {
		return msg.Member.Nick
	}
	if msg.Author != nil {
		if msg.Author.GlobalName != "" {
			return msg.Author.GlobalName
		}
		if msg.Author.Username != "" {
			return msg.Author.Username
		}
	}
	return "Unknown"
}

// messageMentions adapts the message's mention list for the converter.
func messageMentions(msg *discordgo.Message) []slackfmt.Mention {
	if len(msg.Mentions) == 0 {
		return nil
	}
	mentions := make([]slackfmt.Mention, 0, len(msg.Mentions))
	for _, user := range msg.Mentions {
		mentions = append(mentions, slackfmt.Mention{
			ID:         user.ID,
			Username:   user.Username,
			GlobalName: user.GlobalName,
		})
	}
	return mentions
}

// messageURL builds the canonical Discord message link, or "" when any of
// the three path components is missing.
func messageURL(guildID, channelID, messageID string) string {
	if guildID == "" || channelID == "" || messageID == "" {
		return ""
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// replyContext renders the context line for reply messages, naming the
// replied-to author and linking the original message when it can be
// addressed. Message type 19 is Discord's reply type.
func replyContext(cm ChannelMessage) string {
	msg := cm.Message
	if msg.Type != discordgo.MessageTypeReply || msg.ReferencedMessage == nil {
		return ""
	}
	ref := msg.ReferencedMessage

	name := "someone"
	if ref.Author != nil {
		if ref.Author.GlobalName != "" {
			name = ref.Author.GlobalName
		} else if ref.Author.Username != "" {
			name = ref.Author.Username
		}
	}

	// The referenced message comes without a guild ID; it lives in the same
	// guild as the outer message.
	nameLink := "*" + name + "*"
	if url := messageURL(cm.GuildID, ref.ChannelID, ref.ID); url != "" {
		nameLink = fmt.Sprintf("<%s|*%s*>", url, name)
	}

	// U+FE0E forces text presentation of the arrow.
	return fmt.Sprintf("reply to %s ↩︎", nameLink)
}

// slackDate renders a Slack dynamic date token with an RFC3339 fallback so
// clients show the message time in the viewer's timezone.
func slackDate(ts time.Time) string {
	utc := ts.UTC()
	return fmt.Sprintf("<!date^%d^{time}|%s>", utc.Unix(), utc.Format(time.RFC3339))
}
