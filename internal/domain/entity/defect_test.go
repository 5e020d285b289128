package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefectInfo_TotalOverRegistry(t *testing.T) {
	for _, d := range SegmentableDefects() {
		info := d.Info()
		require.NotEmpty(t, info.Label, "label for %s", d)
		require.NotEmpty(t, info.Prompt, "prompt for %s", d)
	}
}

func TestDefectInfo_UnknownFallsBack(t *testing.T) {
	unknown := DefectType("sunburn")
	require.False(t, unknown.Known())

	info := unknown.Info()
	require.Equal(t, "sunburn", info.Label)
	require.Equal(t, RGB{255, 255, 255}, info.Color)
}

func TestDefectLongTimeout(t *testing.T) {
	require.True(t, DefectSkinTags.Info().LongTimeout)
	require.True(t, DefectPapillomas.Info().LongTimeout)
	require.True(t, DefectMoles.Info().LongTimeout)
	require.True(t, DefectFreckles.Info().LongTimeout)
	require.True(t, DefectPigmentation.Info().LongTimeout)
	require.False(t, DefectAcne.Info().LongTimeout)
}

func TestBoundingBoxToMarker_LinearMap(t *testing.T) {
	m := BoundingBox{0, 0, 1000, 1000}.ToMarker()
	require.Equal(t, Marker{X: 50, Y: 50, Width: 100, Height: 100}, m)

	m = BoundingBox{100, 200, 300, 400}.ToMarker()
	require.InDelta(t, 30.0, m.X, 1e-9)
	require.InDelta(t, 20.0, m.Y, 1e-9)
	require.InDelta(t, 20.0, m.Width, 1e-9)
	require.InDelta(t, 20.0, m.Height, 1e-9)
}

func TestStatusLog_AppendOnly(t *testing.T) {
	var log StatusLog
	log.Add("шаг %d", 1)
	log.Add("шаг %d", 2)

	lines := log.Lines()
	require.Equal(t, []string{"шаг 1", "шаг 2"}, lines)

	// Копия не должна влиять на внутреннее состояние.
	lines[0] = "изменено"
	require.Equal(t, "шаг 1", log.Lines()[0])
}
