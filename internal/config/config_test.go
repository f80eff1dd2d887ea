package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lumenkit/creative-toolkit/internal/codefmt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), settings)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "default_language: python\nempty_line_mode: removeAll\npython_main_guard: false\n")

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "python", settings.DefaultLanguage)
	assert.Equal(t, string(codefmt.RemoveAll), settings.EmptyLineMode)
	assert.False(t, settings.PythonMainGuard)
	// untouched fields keep their defaults
	assert.Equal(t, DefaultMaxInputLength, settings.MaxInputLength)
	assert.Equal(t, codefmt.DefaultIndentSize, settings.IndentSize)
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "default_language = \"css\"\nindent_size = 4\nmax_concurrency = 8\n")

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "css", settings.DefaultLanguage)
	assert.Equal(t, 4, settings.IndentSize)
	assert.Equal(t, 8, settings.MaxConcurrency)
	assert.True(t, settings.PythonMainGuard)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown language", "config.yaml", "default_language: cobol\n"},
		{"bad indent size", "config.yaml", "indent_size: 0\n"},
		{"bad empty line mode", "config.toml", "empty_line_mode = \"some\"\n"},
		{"malformed yaml", "config.yaml", "default_language: [\n"},
		{"malformed toml", "config.toml", "default_language = \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)

			settings, err := Load(path)
			assert.Error(t, err)
			assert.Equal(t, Defaults(), settings)
		})
	}
}

func TestPath(t *testing.T) {
	t.Run("environment override", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/tmp/custom.toml")
		assert.Equal(t, "/tmp/custom.toml", Path())
	})

	t.Run("toml used when only toml exists", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv(ConfigPathEnvVar, "")
		dir := filepath.Join(home, ".creative-toolkit")
		require.NoError(t, os.MkdirAll(dir, 0700))
		writeFile(t, filepath.Join(dir, "config.toml"), "indent_size = 3\n")

		assert.Equal(t, filepath.Join(dir, "config.toml"), Path())
	})

	t.Run("yaml by default", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv(ConfigPathEnvVar, "")

		assert.Equal(t, filepath.Join(home, ".creative-toolkit", "config.yaml"), Path())
	})
}

func TestMarshal(t *testing.T) {
	yamlOut, err := Marshal(Defaults(), "config.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(yamlOut), "default_language: javascript")

	tomlOut, err := Marshal(Defaults(), "config.toml")
	require.NoError(t, err)
	assert.Contains(t, string(tomlOut), `default_language = "javascript"`)
}

func TestSetAndGet(t *testing.T) {
	previous := Get()
	t.Cleanup(func() { Set(previous) })

	custom := Defaults()
	custom.DefaultHarmony = "triadic"
	Set(custom)

	assert.Equal(t, "triadic", Get().DefaultHarmony)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	previous := Get()
	t.Cleanup(func() { Set(previous) })

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "indent_size: 2\n")
	Set(Defaults())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	require.NoError(t, Watch(ctx, path, logger))

	writeFile(t, path, "indent_size: 6\n")

	assert.Eventually(t, func() bool {
		return Get().IndentSize == 6
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatch_ReloadsAfterRenameReplace(t *testing.T) {
	previous := Get()
	t.Cleanup(func() { Set(previous) })

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "indent_size: 2\n")
	Set(Defaults())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Watch(ctx, path, logrus.New()))

	replace := func(content string) {
		tmp := filepath.Join(dir, ".config.yaml.tmp")
		writeFile(t, tmp, content)
		require.NoError(t, os.Rename(tmp, path))
	}

	replace("indent_size: 6\n")
	assert.Eventually(t, func() bool {
		return Get().IndentSize == 6
	}, 5*time.Second, 20*time.Millisecond)

	replace("indent_size: 8\n")
	assert.Eventually(t, func() bool {
		return Get().IndentSize == 8
	}, 5*time.Second, 20*time.Millisecond, "second replace must still be seen")

	t.Run("other files in the directory are ignored", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "other.yaml"), "indent_size: 3\n")
		assert.Never(t, func() bool {
			return Get().IndentSize != 8
		}, 300*time.Millisecond, 20*time.Millisecond)
	})
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), logrus.New())
	assert.Error(t, err)
}
