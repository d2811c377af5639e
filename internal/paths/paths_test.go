package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDirs_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	tests := []struct {
		name     string
		fn       func() (string, error)
		xdgVar   string
		xdgValue string
		want     func(home string) string
	}{
		{
			name: "config uses XDG_CONFIG_HOME", fn: DefaultConfigDir,
			xdgVar: "XDG_CONFIG_HOME", xdgValue: "/tmp/xdg-config",
			want: func(string) string { return "/tmp/xdg-config/catalog" },
		},
		{
			name: "config falls back to ~/.config", fn: DefaultConfigDir,
			xdgVar: "XDG_CONFIG_HOME",
			want:   func(home string) string { return filepath.Join(home, ".config", "catalog") },
		},
		{
			name: "data uses XDG_DATA_HOME", fn: DefaultDataDir,
			xdgVar: "XDG_DATA_HOME", xdgValue: "/tmp/xdg-data",
			want: func(string) string { return "/tmp/xdg-data/catalog" },
		},
		{
			name: "data falls back to ~/.local/share", fn: DefaultDataDir,
			xdgVar: "XDG_DATA_HOME",
			want:   func(home string) string { return filepath.Join(home, ".local", "share", "catalog") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.xdgVar, tt.xdgValue)
			home, err := os.UserHomeDir()
			require.NoError(t, err)

			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want(home), got)
		})
	}
}

func TestDefaultDirs_HomeError(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	orig := platformDir.homeDir
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Cleanup(func() { platformDir.homeDir = orig })
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string
	}{
		{"flag wins over env", "/explicit/config", "/env/config", "/explicit/config"},
		{"env wins when flag empty", "", "/env/config", "/env/config"},
		{"platform default when both empty", "", "", "catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}

	t.Run("relative flag becomes absolute", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		got, err := ResolveConfigDir("relative/path")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

func TestResolveDataDir(t *testing.T) {
	platformDefault, err := DefaultDataDir()
	require.NoError(t, err)

	tests := []struct {
		name        string
		flag        string
		configValue string
		envVal      string
		want        string
	}{
		{"flag wins over all", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config.yaml wins over env", "", "/config/data", "/env/data", "/config/data"},
		{"env wins when flag and config empty", "", "", "/env/data", "/env/data"},
		{"platform default when all empty", "", "", "", platformDefault},
		{"memory passes through", ":memory:", "/config/data", "", ":memory:"},
		{"memory from env", "", "", ":memory:", ":memory:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("relative config value becomes absolute", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		got, err := ResolveDataDir("", "relative/config")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}
