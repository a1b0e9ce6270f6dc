// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mirror

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default Tower API endpoint; overridable via TOWER_URL.
const defaultTowerURL = "https://api.tower.dev"

// Config holds everything a single mirror run needs. It is constructed once
// at startup and passed by reference; components never read the environment
// themselves.
type Config struct {
	// DiscordToken is the bot token used for all Discord API calls.
	DiscordToken string `yaml:"discord_token"`
	// ChannelIDs are the Discord channels to mirror, in fetch order.
	ChannelIDs []string `yaml:"channel_ids"`
	// SlackWebhookURL is the incoming webhook that receives the batched post.
	SlackWebhookURL string `yaml:"slack_webhook_url"`

	// TowerAPIKey authenticates run-history lookups. Empty disables the
	// lookup entirely and the watermark falls back to the fixed lookback.
	TowerAPIKey string `yaml:"tower_api_key"`
	// TowerURL is the Tower API base URL, normalized to end in /v1.
	TowerURL string `yaml:"tower_url"`
	// Environment is the Tower environment tag used to scope run history.
	Environment string `yaml:"environment"`
}

// Load reads configuration from the environment, applies the optional YAML
// overlay named by MIRROR_CONFIG_FILE, and validates the result. A .env file
// in the working directory is loaded first if present (development only).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:    os.Getenv("DISCORD_BOT_TOKEN"),
		ChannelIDs:      splitChannelIDs(os.Getenv("DISCORD_CHANNEL_IDS")),
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		TowerAPIKey:     os.Getenv("TOWER_API_KEY"),
		TowerURL:        getEnv("TOWER_URL", defaultTowerURL),
		Environment:     getEnv("TOWER_ENVIRONMENT", "default"),
	}

	if path := os.Getenv("MIRROR_CONFIG_FILE"); path != "" {
		if err := cfg.applyOverlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.TowerURL = normalizeTowerURL(cfg.TowerURL)
	return cfg, nil
}

// applyOverlay merges non-zero fields from a YAML file over the current
// values. A missing or unreadable file is a configuration error because the
// operator asked for it explicitly.
func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if overlay.DiscordToken != "" {
		c.DiscordToken = overlay.DiscordToken
	}
	if len(overlay.ChannelIDs) > 0 {
		c.ChannelIDs = overlay.ChannelIDs
	}
	if overlay.SlackWebhookURL != "" {
		c.SlackWebhookURL = overlay.SlackWebhookURL
	}
	if overlay.TowerAPIKey != "" {
		c.TowerAPIKey = overlay.TowerAPIKey
	}
	if overlay.TowerURL != "" {
		c.TowerURL = overlay.TowerURL
	}
	if overlay.Environment != "" {
		c.Environment = overlay.Environment
	}
	return nil
}

// Validate reports the first missing required value. It runs before any
// network call so configuration mistakes fail fast.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN environment variable not set")
	}
	if len(c.ChannelIDs) == 0 {
		return fmt.Errorf("DISCORD_CHANNEL_IDS environment variable not set or contains no valid channel IDs")
	}
	if c.SlackWebhookURL == "" {
		return fmt.Errorf("SLACK_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// splitChannelIDs parses the comma-separated channel list, dropping empty
// entries and surrounding whitespace.
func splitChannelIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// normalizeTowerURL ensures the base URL carries the /v1 suffix the API
// expects, tolerating trailing slashes.
func normalizeTowerURL(raw string) string {
	if strings.HasSuffix(raw, "/v1") {
		return raw
	}
	return strings.TrimRight(raw, "/") + "/v1"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
