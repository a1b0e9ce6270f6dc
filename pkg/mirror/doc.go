// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package mirror implements a one-shot pipeline that mirrors new Discord
// messages into a Slack channel through an incoming webhook.
//
// A run is bounded by a watermark: the end time of the last successful run
// of this job, resolved from the Tower run-history API. When the history
// service is unreachable, unauthenticated, or empty, the watermark degrades
// to a fixed five-minute lookback so a run always covers a bounded window.
// A failed run leaves the watermark unadvanced and the next run re-covers
// the same window.
//
// # Core Types
//
// [Mirror] orchestrates a run: resolve the watermark, fetch each configured
// channel in order, sort all kept messages chronologically, render them to
// Slack blocks, and issue a single batched webhook post.
//
// [Fetcher] lists recent messages per channel and keeps those strictly newer
// than the watermark. Channels the bot cannot read (403/404) yield empty
// results instead of aborting the run.
//
// [Publisher] posts the accumulated blocks in one webhook call. A non-2xx
// response is fatal for the run; there are no retries anywhere.
//
// # Sub-packages
//
//   - slackfmt converts Discord markdown to Slack mrkdwn.
package mirror
