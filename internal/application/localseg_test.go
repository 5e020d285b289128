package app

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"skin-bot/internal/domain/entity"
)

// syntheticFace рисует светлый кадр с тёмным пятном в левом верхнем углу.
// Пятно одновременно даёт тёмную область и резкий перепад яркости.
func syntheticFace(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			c := color.RGBA{R: 220, G: 200, B: 190, A: 255}
			if x >= 10 && x < 30 && y >= 10 && y < 30 {
				c = color.RGBA{R: 40, G: 30, B: 25, A: 255}
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLocalSegmenter_FindsDarkRegion(t *testing.T) {
	seg := &LocalSegmenter{}

	regions, err := seg.Segment(syntheticFace(t))
	require.NoError(t, err)

	boxes := regions[entity.DefectPigmentation]
	require.Len(t, boxes, 1)

	box := boxes[0]
	require.InDelta(t, 100, box.Box[0], 20) // y_min около 10% кадра
	require.InDelta(t, 100, box.Box[1], 20)
	require.InDelta(t, 290, box.Box[2], 20)
	require.InDelta(t, 290, box.Box[3], 20)
	require.Greater(t, box.Confidence, 0.0)
	require.LessOrEqual(t, box.Confidence, 1.0)
}

func TestLocalSegmenter_FindsGradientRegion(t *testing.T) {
	seg := &LocalSegmenter{}

	regions, err := seg.Segment(syntheticFace(t))
	require.NoError(t, err)

	boxes := regions[entity.DefectWrinkles]
	require.Len(t, boxes, 1)
	require.Greater(t, boxes[0].Confidence, 0.0)
}

func TestLocalSegmenter_RejectsGarbage(t *testing.T) {
	seg := &LocalSegmenter{}

	_, err := seg.Segment([]byte("not an image"))
	require.Error(t, err)
}
