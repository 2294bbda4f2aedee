package tournament

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, 1500.0, config.Rating.InitialRating)
	assert.Equal(t, 40.0, config.Rating.KFactor)
	assert.Equal(t, 800.0, config.Rating.MinRating)
	assert.Equal(t, 2400.0, config.Rating.MaxRating)
	assert.Equal(t, 5*time.Minute, config.Run.Timeout)
	assert.Equal(t, "sessions", config.Run.SessionDir)
	assert.Equal(t, "csv", config.Export.Format)
	assert.True(t, config.UI.ShowProgress)
}

func TestConfigValidate(t *testing.T) {
	t.Run("invalid rating config", func(t *testing.T) {
		config := DefaultConfig()
		config.Rating.KFactor = 0

		err := config.Validate()
		assert.Error(t, err)
	})

	t.Run("zero timeout", func(t *testing.T) {
		config := DefaultConfig()
		config.Run.Timeout = 0

		err := config.Validate()
		assert.ErrorIs(t, err, ErrInvalidRunConfig)
	})

	t.Run("unreasonably long timeout", func(t *testing.T) {
		config := DefaultConfig()
		config.Run.Timeout = 48 * time.Hour

		err := config.Validate()
		assert.ErrorIs(t, err, ErrInvalidRunConfig)
	})

	t.Run("empty session dir", func(t *testing.T) {
		config := DefaultConfig()
		config.Run.SessionDir = ""

		err := config.Validate()
		assert.ErrorIs(t, err, ErrInvalidRunConfig)
	})

	t.Run("unsupported export format", func(t *testing.T) {
		config := DefaultConfig()
		config.Export.Format = "xml"

		err := config.Validate()
		assert.ErrorIs(t, err, ErrInvalidExportConfig)
	})

	t.Run("out of range decimals", func(t *testing.T) {
		config := DefaultConfig()
		config.Export.RoundDecimals = 11

		err := config.Validate()
		assert.ErrorIs(t, err, ErrInvalidExportConfig)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("partial file merges with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "namerank.yaml")
		content := "rating:\n  k_factor: 24\nexport:\n  format: json\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		config, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 24.0, config.Rating.KFactor)
		assert.Equal(t, "json", config.Export.Format)
		// Untouched values fall back to defaults
		assert.Equal(t, 1500.0, config.Rating.InitialRating)
		assert.Equal(t, 5*time.Minute, config.Run.Timeout)
	})

	t.Run("explicit zero values survive the merge", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "namerank.yaml")
		content := "rating:\n  min_rating: 0\nexport:\n  round_decimals: 0\nui:\n  show_progress: false\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		config, err := LoadFromFile(path)
		require.NoError(t, err)

		// A configured zero is not "unset" and must not become the default
		assert.Equal(t, 0.0, config.Rating.MinRating)
		assert.Equal(t, 0, config.Export.RoundDecimals)
		assert.False(t, config.UI.ShowProgress)
		assert.Equal(t, 2400.0, config.Rating.MaxRating)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rating: [not a map"), 0644))

		_, err := LoadFromFile(path)
		assert.ErrorIs(t, err, ErrConfigParseError)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.yaml")
		content := "rating:\n  k_factor: -5\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}

func TestLoadWithEnvironment(t *testing.T) {
	t.Run("defaults when file missing", func(t *testing.T) {
		config, err := LoadWithEnvironment(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), *config)
	})

	t.Run("environment overrides file and defaults", func(t *testing.T) {
		t.Setenv("NAMERANK_RATING_K_FACTOR", "16")
		t.Setenv("NAMERANK_RUN_TIMEOUT", "90s")
		t.Setenv("NAMERANK_EXPORT_FORMAT", "json")
		t.Setenv("NAMERANK_UI_PLAIN", "true")

		path := filepath.Join(t.TempDir(), "namerank.yaml")
		content := "rating:\n  k_factor: 24\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		config, err := LoadWithEnvironment(path)
		require.NoError(t, err)

		assert.Equal(t, 16.0, config.Rating.KFactor)
		assert.Equal(t, 90*time.Second, config.Run.Timeout)
		assert.Equal(t, "json", config.Export.Format)
		assert.True(t, config.UI.Plain)
	})

	t.Run("invalid override value is ignored", func(t *testing.T) {
		t.Setenv("NAMERANK_RATING_K_FACTOR", "not-a-number")

		config, err := LoadWithEnvironment("")
		require.NoError(t, err)
		assert.Equal(t, 40.0, config.Rating.KFactor)
	})
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "namerank.yaml")

	config := DefaultConfig()
	config.Rating.KFactor = 24
	require.NoError(t, config.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 24.0, loaded.Rating.KFactor)
}
