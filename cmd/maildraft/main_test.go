package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajramos/maildraft/internal/tui"
)

// Test path resolution functions
func TestGetConfigPath_Priority(t *testing.T) {
	// Save original environment
	originalEnv := os.Getenv("MAILDRAFT_CONFIG")
	defer func() { _ = os.Setenv("MAILDRAFT_CONFIG", originalEnv) }()

	// Test CLI flag takes precedence
	result := getConfigPath("/custom/config.json")
	assert.Equal(t, "/custom/config.json", result)

	// Test environment variable when no flag
	_ = os.Setenv("MAILDRAFT_CONFIG", "/env/config.json")
	result = getConfigPath("")
	assert.Equal(t, "/env/config.json", result)

	// Test default when neither flag nor env
	_ = os.Unsetenv("MAILDRAFT_CONFIG")
	result = getConfigPath("")
	assert.Contains(t, result, "config.json") // Should contain default path
}

func TestGetCredentialsPath_Priority(t *testing.T) {
	// Save original environment
	originalEnv := os.Getenv("MAILDRAFT_CREDENTIALS")
	defer func() { _ = os.Setenv("MAILDRAFT_CREDENTIALS", originalEnv) }()

	// Test CLI flag takes precedence
	result := getCredentialsPath("/custom/creds.json", "/config/creds.json")
	assert.Equal(t, "/custom/creds.json", result)

	// Test environment variable when no flag
	_ = os.Setenv("MAILDRAFT_CREDENTIALS", "/env/creds.json")
	result = getCredentialsPath("", "/config/creds.json")
	assert.Equal(t, "/env/creds.json", result)

	// Test config value when no flag or env
	_ = os.Unsetenv("MAILDRAFT_CREDENTIALS")
	result = getCredentialsPath("", "/config/creds.json")
	assert.Equal(t, "/config/creds.json", result)

	// Test default when nothing provided
	result = getCredentialsPath("", "")
	assert.Contains(t, result, "credentials.json")
}

func TestGetTokenPath_Priority(t *testing.T) {
	// Save original environment
	originalEnv := os.Getenv("MAILDRAFT_TOKEN")
	defer func() { _ = os.Setenv("MAILDRAFT_TOKEN", originalEnv) }()

	// Test CLI flag takes precedence
	result := getTokenPath("/custom/token.json", "/config/token.json")
	assert.Equal(t, "/custom/token.json", result)

	// Test environment variable when no flag
	_ = os.Setenv("MAILDRAFT_TOKEN", "/env/token.json")
	result = getTokenPath("", "/config/token.json")
	assert.Equal(t, "/env/token.json", result)

	// Test config value when no flag or env
	_ = os.Unsetenv("MAILDRAFT_TOKEN")
	result = getTokenPath("", "/config/token.json")
	assert.Equal(t, "/config/token.json", result)

	// Test default when nothing provided
	result = getTokenPath("", "")
	assert.Contains(t, result, "token.json")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)

	// Absolute paths pass through untouched
	assert.Equal(t, "/tmp/x.json", expandPath("/tmp/x.json"))

	// Bare tilde expands to home
	assert.Equal(t, home, expandPath("~"))

	// Tilde prefix expands under home
	expanded := expandPath("~/cfg/x.json")
	assert.Equal(t, filepath.Join(home, "cfg", "x.json"), expanded)
	assert.False(t, strings.HasPrefix(expanded, "~"))
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		replyAll  string
		forward   string
		wantMode  tui.Mode
		wantID    string
		expectErr bool
	}{
		{name: "default_is_new", wantMode: tui.ModeNew},
		{name: "reply", reply: "m1", wantMode: tui.ModeReply, wantID: "m1"},
		{name: "reply_all", replyAll: "m2", wantMode: tui.ModeReplyAll, wantID: "m2"},
		{name: "forward", forward: "m3", wantMode: tui.ModeForward, wantID: "m3"},
		{name: "conflicting_flags", reply: "m1", forward: "m3", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, id, err := resolveMode(tt.reply, tt.replyAll, tt.forward)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
