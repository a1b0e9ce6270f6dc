// Copyright 2024-2026 Tower

// Package slackfmt converts Discord markdown to Slack mrkdwn.
package slackfmt

import (
	"regexp"
	"strings"
)

// Mention describes a user referenced by an inline mention token. The fields
// mirror the Discord user object carried in a message's mention list.
type Mention struct {
	ID         string
	Username   string
	GlobalName string
}

// DisplayName returns the name a mention should render as: the global
// display name when set, otherwise the username, otherwise the raw ID.
func (m Mention) DisplayName() string {
	if m.GlobalName != "" {
		return m.GlobalName
	}
	if m.Username != "" {
		return m.Username
	}
	return m.ID
}

var (
	linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	// A single alternation keeps the three-star form from being re-matched
	// by the two- and one-star forms after rewriting.
	emphasisRe = regexp.MustCompile(`\*{3}(.+?)\*{3}|\*{2}(.+?)\*{2}|\*(.+?)\*`)
	strikeRe   = regexp.MustCompile(`~~(.+?)~~`)
	emojiRe    = regexp.MustCompile(`<a?:([^:]+):\d+>`)
)

// Convert rewrites Discord markdown into Slack mrkdwn. Rules apply in order:
// mentions, links, emphasis (three-star before two-star before one-star),
// strikethrough, custom emoji. Empty input passes through unchanged.
func Convert(text string, mentions []Mention) string {
	if !hasFormatting(text, mentions) {
		return text
	}

	// Mention tokens come in plain (<@id>) and silent (<@!id>) spellings;
	// the pattern also tolerates stray unclosed brackets.
	for _, mention := range mentions {
		if mention.ID == "" {
			continue
		}
		mentionRe := regexp.MustCompile(`<?@!?` + regexp.QuoteMeta(mention.ID) + `>?`)
		text = mentionRe.ReplaceAllString(text, "@"+mention.DisplayName())
	}

	text = linkRe.ReplaceAllString(text, "<$2|$1>")

	text = emphasisRe.ReplaceAllStringFunc(text, func(match string) string {
		groups := emphasisRe.FindStringSubmatch(match)
		switch {
		case groups[1] != "":
			return "*_" + groups[1] + "_*"
		case groups[2] != "":
			return "*" + groups[2] + "*"
		default:
			return "_" + groups[3] + "_"
		}
	})

	text = strikeRe.ReplaceAllString(text, "~$1~")
	text = emojiRe.ReplaceAllString(text, ":$1:")

	return text
}

// hasFormatting reports whether the text contains any token Convert would
// rewrite, assuming the given mention list.
func hasFormatting(text string, mentions []Mention) bool {
	if text == "" {
		return false
	}
	if linkRe.MatchString(text) || emphasisRe.MatchString(text) ||
		strikeRe.MatchString(text) || emojiRe.MatchString(text) {
		return true
	}
	for _, mention := range mentions {
		if mention.ID != "" && strings.Contains(text, mention.ID) {
			return true
		}
	}
	return false
}
