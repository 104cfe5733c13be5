package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andyballingall/cmake-format-runner/internal/discover"
	rfs "github.com/andyballingall/cmake-format-runner/internal/fs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("missing optional file gives defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := Load(filepath.Join(t.TempDir(), FileName), false, nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Empty(t, cfg.Path)
	})

	t.Run("missing required file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yml")
		_, err := Load(path, true, nil)
		var target *MissingConfigError
		require.ErrorAs(t, err, &target)
		assert.EqualError(t, err, "runner config "+path+" does not exist")
	})

	t.Run("empty file gives defaults", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "")
		cfg, err := Load(path, true, nil)
		require.NoError(t, err)
		assert.Equal(t, path, cfg.Path)
		assert.Equal(t, Default().Suffixes, cfg.Suffixes)
	})

	t.Run("full file", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
formatter: /opt/bin/cmake-format
exclude: [third_party, "gen_*"]
suffixes: [.cmake, .cmake.in]
filenames: [CMakeLists.txt, Config.cmake]
jobs: 4
style: .cmake-format.yaml
`)
		cfg, err := Load(path, false, nil)
		require.NoError(t, err)
		assert.Equal(t, "/opt/bin/cmake-format", cfg.Formatter)
		assert.Equal(t, []string{"third_party", "gen_*"}, cfg.Exclude)
		assert.Equal(t, []string{".cmake", ".cmake.in"}, cfg.Suffixes)
		assert.Equal(t, []string{"CMakeLists.txt", "Config.cmake"}, cfg.Filenames)
		assert.Equal(t, 4, cfg.Jobs)
		assert.Equal(t, filepath.Join(filepath.Dir(path), ".cmake-format.yaml"), cfg.Style)
		assert.Equal(t, discover.Matcher{
			Suffixes: []string{".cmake", ".cmake.in"},
			Names:    []string{"CMakeLists.txt", "Config.cmake"},
		}, cfg.Matcher())
	})

	t.Run("absolute and file styles are kept", func(t *testing.T) {
		t.Parallel()
		cfg, err := Load(writeConfig(t, "style: /etc/cmake-format.yaml\n"), false, nil)
		require.NoError(t, err)
		assert.Equal(t, "/etc/cmake-format.yaml", cfg.Style)

		cfg, err = Load(writeConfig(t, "style: file\n"), false, nil)
		require.NoError(t, err)
		assert.Equal(t, "file", cfg.Style)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "formatter: from-file\n")
		env := rfs.MapEnvProvider{
			EnvBinary:  "from-env",
			EnvLogFile: "/tmp/run.log",
		}
		cfg, err := Load(path, false, env)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Formatter)
		assert.Equal(t, "/tmp/run.log", cfg.LogFile)
	})

	t.Run("unreadable path", func(t *testing.T) {
		t.Parallel()
		_, err := Load(t.TempDir(), false, nil)
		require.Error(t, err)
	})
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		errStr  string
	}{
		{
			name:    "invalid yaml",
			content: "invalid: yaml: :",
			errStr:  "runner config is not a valid yaml document",
		},
		{
			name:    "unknown property",
			content: "formater: cmake-format\n",
			errStr:  "field formater not found",
		},
		{
			name:    "negative jobs",
			content: "jobs: -2\n",
			errStr:  "runner config property jobs has invalid value '-2': must be zero or positive",
		},
		{
			name:    "suffix without dot",
			content: "suffixes: [cmake]\n",
			errStr:  "runner config property suffixes has invalid value 'cmake': must start with a dot",
		},
		{
			name:    "bad exclude glob",
			content: "exclude: ['[unclosed']\n",
			errStr:  "runner config property exclude has invalid value '[unclosed'",
		},
		{
			name:    "nothing recognised",
			content: "suffixes: []\nfilenames: []\n",
			errStr:  "runner config is missing required property: suffixes or filenames",
		},
		{
			name:    "empty formatter",
			content: "formatter: ''\n",
			errStr:  "runner config is missing required property: formatter",
		},
		{
			name:    "empty style",
			content: "style: ''\n",
			errStr:  "runner config is missing required property: style",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.content), false, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errStr)
		})
	}
}
