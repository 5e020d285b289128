package knowledge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"skin-bot/internal/domain/entity"
)

func TestLoad_EmbeddedBase(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	entry, ok := base.Entry(entity.DefectSkinTags)
	require.True(t, ok)
	require.NotEmpty(t, entry.Description)
	require.NotEmpty(t, entry.Characteristics)
	require.Len(t, entry.FewShotExamples, 3)
}

func TestEnhancePrompt_WithKnowledge(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	prompt := base.EnhancePrompt(entity.DefectSkinTags, "skin tags")
	require.Contains(t, prompt, "skin tags")
	require.Contains(t, prompt, "Characteristics: ")
	require.Contains(t, prompt, "Examples: ")
	require.Contains(t, prompt, "Pedunculated (hanging from a stalk)")
}

func TestEnhancePrompt_NoEntryKeepsBase(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	prompt := base.EnhancePrompt(entity.DefectWrinkles, "wrinkles, fine lines")
	require.Equal(t, "wrinkles, fine lines", prompt)
}
