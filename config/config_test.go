package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 11434, cfg.OllamaPort)
	require.Equal(t, "skin-uploads", cfg.UploadsBucket)
	require.Equal(t, 5, cfg.SegmentTimeoutSeconds)
	require.Equal(t, 25.0, cfg.MaxMaskCoveragePercent)
	require.True(t, cfg.UseLLMPreanalysis)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SEGMENT_TIMEOUT_SECONDS", "12")
	t.Setenv("MAX_MASK_COVERAGE_PERCENT", "40")
	t.Setenv("USE_LLM_PREANALYSIS", "false")
	t.Setenv("OLLAMA_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 12, cfg.SegmentTimeoutSeconds)
	require.Equal(t, 40.0, cfg.MaxMaskCoveragePercent)
	require.False(t, cfg.UseLLMPreanalysis)
	// Невалидное значение откатывается к дефолту
	require.Equal(t, 11434, cfg.OllamaPort)
}
