package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "screener:\n  symbols: [AAA.NS, BBB.NS]\ndata_source:\n  provider: mock\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestScanCommand(t *testing.T) {
	path := mockConfig(t)
	for _, format := range []string{"lines", "table"} {
		t.Run(format, func(t *testing.T) {
			err := cliApp().Run([]string{"screener", "--config", path, "--log-level", "error", "scan", "--lookback", "5", "--format", format})
			assert.NoError(t, err)
		})
	}
}

func TestScanCommand_RejectsBadFlags(t *testing.T) {
	path := mockConfig(t)
	tests := map[string][]string{
		"interval":  {"scan", "--interval", "1h"},
		"lookback":  {"scan", "--lookback", "30"},
		"format":    {"scan", "--format", "csv"},
		"symbols":   {"scan", "--symbols", " , "},
		"log level": {"scan"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			level := "error"
			if name == "log level" {
				level = "loud"
			}
			err := cliApp().Run(append([]string{"screener", "--config", path, "--log-level", level}, args...))
			assert.Error(t, err)
		})
	}
}

func TestWatchCommand_RequiresTelegram(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	err := cliApp().Run([]string{"screener", "--config", mockConfig(t), "--log-level", "error", "watch"})
	assert.ErrorContains(t, err, "bot_token")
}
