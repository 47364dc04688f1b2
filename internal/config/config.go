package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the bridge.
type Config struct {
	// MastodonServer is the base URL of the source Mastodon server.
	MastodonServer string

	// MastodonAccessToken authorizes the streaming subscription.
	MastodonAccessToken string

	// MastodonAccountID is the tracked account; only its public statuses
	// are cross-posted.
	MastodonAccountID string

	// BlueskyPDS is the destination PDS base URL.
	BlueskyPDS string

	// BlueskyIdentifier is the destination account handle or DID.
	BlueskyIdentifier string

	// BlueskyAppPassword is the destination account's app password.
	BlueskyAppPassword string

	// LedgerPath is the filesystem path of the thread ledger database.
	LedgerPath string

	// OpsPort is the port of the health/stats HTTP server.
	OpsPort int
}

// Load reads configuration from environment variables. Credentials and the
// tracked account are required; their absence is a startup error.
func Load() (*Config, error) {
	cfg := &Config{
		MastodonServer:      os.Getenv("MASTODON_SERVER"),
		MastodonAccessToken: os.Getenv("MASTODON_ACCESS_TOKEN"),
		MastodonAccountID:   os.Getenv("MASTODON_ACCOUNT_ID"),
		BlueskyPDS:          os.Getenv("BLUESKY_PDS"),
		BlueskyIdentifier:   os.Getenv("BLUESKY_IDENTIFIER"),
		BlueskyAppPassword:  os.Getenv("BLUESKY_APP_PASSWORD"),
		LedgerPath:          os.Getenv("LEDGER_DB_PATH"),
	}

	required := []struct {
		name  string
		value string
	}{
		{"MASTODON_SERVER", cfg.MastodonServer},
		{"MASTODON_ACCESS_TOKEN", cfg.MastodonAccessToken},
		{"MASTODON_ACCOUNT_ID", cfg.MastodonAccountID},
		{"BLUESKY_IDENTIFIER", cfg.BlueskyIdentifier},
		{"BLUESKY_APP_PASSWORD", cfg.BlueskyAppPassword},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%s is required", r.name)
		}
	}

	if cfg.LedgerPath == "" {
		cfg.LedgerPath = "skybridge.db"
	}

	cfg.OpsPort = 3000
	if p := os.Getenv("OPS_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid OPS_PORT: %w", err)
		}
		cfg.OpsPort = port
	}

	return cfg, nil
}
