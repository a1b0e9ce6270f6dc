// Copyright 2024-2026 Tower
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package mirror

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// setBaseEnv pins every variable Load reads so tests are hermetic.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")
	t.Setenv("DISCORD_CHANNEL_IDS", "123,456")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/T/B/X")
	t.Setenv("TOWER_API_KEY", "")
	t.Setenv("TOWER_URL", "")
	t.Setenv("TOWER_ENVIRONMENT", "")
	t.Setenv("MIRROR_CONFIG_FILE", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.ChannelIDs, []string{"123", "456"}) {
		t.Errorf("ChannelIDs: got %v", cfg.ChannelIDs)
	}
	if cfg.TowerURL != "https://api.tower.dev/v1" {
		t.Errorf("TowerURL: got %q", cfg.TowerURL)
	}
	if cfg.Environment != "default" {
		t.Errorf("Environment: got %q", cfg.Environment)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	cases := []struct {
		name    string
		unset   string
		wantMsg string
	}{
		{"token", "DISCORD_BOT_TOKEN", "DISCORD_BOT_TOKEN"},
		{"channels", "DISCORD_CHANNEL_IDS", "DISCORD_CHANNEL_IDS"},
		{"webhook", "SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tc.unset, "")
			_, err := Load()
			if err == nil {
				t.Fatalf("Load should fail without %s", tc.unset)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error should name %s, got %q", tc.wantMsg, err)
			}
		})
	}
}

func TestLoadChannelIDSplitting(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DISCORD_CHANNEL_IDS", " 1 , ,2,, 3 ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.ChannelIDs, []string{"1", "2", "3"}) {
		t.Errorf("ChannelIDs: got %v, want [1 2 3]", cfg.ChannelIDs)
	}
}

func TestLoadOnlyEmptyChannelIDs(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DISCORD_CHANNEL_IDS", " , ,")
	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when no channel ID survives parsing")
	}
}

func TestNormalizeTowerURL(t *testing.T) {
	t.Parallel()
	cases := []struct{ in, want string }{
		{"https://api.tower.dev", "https://api.tower.dev/v1"},
		{"https://api.tower.dev/", "https://api.tower.dev/v1"},
		{"https://api.tower.dev/v1", "https://api.tower.dev/v1"},
		{"https://tower.internal:8080//", "https://tower.internal:8080/v1"},
	}
	for _, tc := range cases {
		if got := normalizeTowerURL(tc.in); got != tc.want {
			t.Errorf("normalizeTowerURL(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "mirror.yaml")
	overlay := "channel_ids:\n  - \"789\"\nenvironment: staging\n"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MIRROR_CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.ChannelIDs, []string{"789"}) {
		t.Errorf("overlay should replace channel IDs, got %v", cfg.ChannelIDs)
	}
	if cfg.Environment != "staging" {
		t.Errorf("overlay should replace environment, got %q", cfg.Environment)
	}
	// Untouched fields keep their env values.
	if cfg.DiscordToken != "bot-token" {
		t.Errorf("overlay should not clear the token, got %q", cfg.DiscordToken)
	}
}

func TestLoadOverlayFileMissing(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MIRROR_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("an explicitly named but missing config file must be an error")
	}
}
