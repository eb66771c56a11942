package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/counterpoint"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "DATABASE_URL", "REDIS_URL", "CACHE_TTL_SECONDS", "ENGINE_WORKERS", "AUTH_MODE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Zero(t, cfg.EngineWorkers)
	assert.False(t, cfg.IsGatewayMode())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("ENGINE_WORKERS", "8")
	t.Setenv("AUTH_MODE", "gateway")

	cfg := Load()
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.EngineWorkers)
	assert.True(t, cfg.IsGatewayMode())
	assert.True(t, cfg.IsProduction())
}

func TestLoadJWTMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()
	assert.True(t, cfg.IsJWTMode())
	assert.False(t, cfg.IsGatewayMode())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadIgnoresMalformedInts(t *testing.T) {
	t.Setenv("ENGINE_WORKERS", "many")
	assert.Zero(t, Load().EngineWorkers)
}

func TestDefaultEngineIsValid(t *testing.T) {
	e := DefaultEngine()
	require.NoError(t, e.Validate())
	assert.Equal(t, []string{"bach", "chopin", "floyd"}, e.Styles.Names())
	assert.Len(t, e.Orchestrator.Voices, 4)
}

func TestEngineValidateCrossChecks(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *Engine)
		wantErr bool
	}{
		{"defaults", func(e *Engine) {}, false},
		{"leap equal to step", func(e *Engine) {
			e.Voicing.LeapThreshold = 3
			e.Counterpoint.StepLimit = 3
		}, false},
		{"leap below step", func(e *Engine) { e.Voicing.LeapThreshold = 1 }, false},
		{"leap above step", func(e *Engine) { e.Voicing.LeapThreshold = 3 }, true},
		{"all pairs checked", func(e *Engine) { e.Counterpoint.OuterDirectOnly = false }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := DefaultEngine()
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInconsistentEngine)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadEngineWorkerOverride(t *testing.T) {
	e, err := LoadEngine(&Config{EngineWorkers: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, e.Voicing.Workers)
	assert.Equal(t, 2, e.Orchestrator.Workers)
}

func writePresets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadEnginePresetsFile(t *testing.T) {
	path := writePresets(t, `
counterpoint:
  static_run_limit: 4
voicing:
  max_spacing: 10
styles:
  hymn:
    density: 1.0
    duration_cv: 0.1
    rhythm_variety: 2
    step_ratio: 0.8
    leap_probability: 0.05
    direction_change_prob: 0.4
    target_run_length: 2.0
    pitch_center: 67
    pitch_range: 10
    contour_bias: 0.0
    chromaticism: 0.0
    repetition: 0.2
    phrase_length_beats: 8.0
    phrase_arc: true
`)

	e, err := LoadEngine(&Config{EnginePresetsFile: path})
	require.NoError(t, err)

	assert.Equal(t, 4, e.Counterpoint.StaticRunLimit)
	assert.Equal(t, counterpoint.DefaultConfig().BeatsPerBar, e.Counterpoint.BeatsPerBar)
	assert.Equal(t, 10, e.Voicing.MaxSpacing)
	assert.Equal(t, voicing.SATB(), e.Voicing.Ranges)
	assert.Equal(t, []string{"hymn"}, e.Styles.Names())
	assert.Len(t, e.Orchestrator.Voices, 4)
}

func TestLoadEngineErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		is   error
	}{
		{
			name: "missing file",
			cfg:  &Config{EnginePresetsFile: filepath.Join(t.TempDir(), "absent.yaml")},
		},
		{
			name: "malformed yaml",
			cfg:  &Config{EnginePresetsFile: writePresets(t, "voicing: [")},
		},
		{
			name: "invalid section value",
			cfg:  &Config{EnginePresetsFile: writePresets(t, "counterpoint:\n  beats_per_bar: 0\n")},
			is:   counterpoint.ErrInvalidConfig,
		},
		{
			name: "invalid voicing value",
			cfg:  &Config{EnginePresetsFile: writePresets(t, "voicing:\n  max_spacing: 40\n")},
			is:   voicing.ErrInvalidConfig,
		},
		{
			name: "voicing leap looser than validator step",
			cfg:  &Config{EnginePresetsFile: writePresets(t, "voicing:\n  leap_threshold: 4\n")},
			is:   ErrInconsistentEngine,
		},
		{
			name: "direct perfects checked on every pair",
			cfg:  &Config{EnginePresetsFile: writePresets(t, "counterpoint:\n  outer_direct_only: false\n")},
			is:   ErrInconsistentEngine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadEngine(tt.cfg)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}
