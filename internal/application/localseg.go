package app

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sort"

	"skin-bot/internal/domain/entity"
)

// LocalSegmenter — грубый локальный сегментатор по яркости и градиенту.
// Не требует ни внешнего сервиса, ни нативных библиотек, поэтому всегда
// доступен как резервный источник маркеров: тёмные области считаются
// пигментацией, области с резким перепадом яркости — морщинами.
type LocalSegmenter struct{}

// Segment находит на изображении кандидатов в пигментацию и морщины.
// Координаты нормализованы к 0–1000 независимо от размера снимка.
func (s *LocalSegmenter) Segment(imageData []byte) (map[entity.DefectType][]entity.ScoredBox, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty image %dx%d", width, height)
	}

	gray := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray[y*width+x] = (float64(r>>8) + float64(g>>8) + float64(b>>8)) / 3
		}
	}

	darkThreshold := percentile(gray, 20)
	darkMask := make([]bool, len(gray))
	for i, v := range gray {
		darkMask[i] = v < darkThreshold
	}

	gradient := sobelMagnitude(gray, width, height)
	wrinkleThreshold := percentile(gradient, 80)
	wrinkleMask := make([]bool, len(gradient))
	for i, v := range gradient {
		wrinkleMask[i] = v > wrinkleThreshold
	}

	result := map[entity.DefectType][]entity.ScoredBox{}
	if box, ok := extractRegion(darkMask, width, height, 20); ok {
		result[entity.DefectPigmentation] = []entity.ScoredBox{box}
	}
	if box, ok := extractRegion(wrinkleMask, width, height, 50); ok {
		result[entity.DefectWrinkles] = []entity.ScoredBox{box}
	}
	return result, nil
}

// sobelMagnitude вычисляет модуль градиента яркости оператором Собеля.
// Краевые пиксели остаются нулевыми.
func sobelMagnitude(gray []float64, width, height int) []float64 {
	out := make([]float64, len(gray))
	if width < 3 || height < 3 {
		return out
	}
	at := func(x, y int) float64 { return gray[y*width+x] }
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			out[y*width+x] = math.Sqrt(gx*gx + gy*gy)
		}
	}
	return out
}

// percentile возвращает p-й перцентиль значений (линейная интерполяция).
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// extractRegion находит ограничивающий прямоугольник всех активных пикселей
// маски. Уверенность растёт с площадью и насыщается на 1% площади кадра.
func extractRegion(mask []bool, width, height, minArea int) (entity.ScoredBox, bool) {
	xMin, yMin := width, height
	xMax, yMax := -1, -1
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask[y*width+x] {
				continue
			}
			if x < xMin {
				xMin = x
			}
			if x > xMax {
				xMax = x
			}
			if y < yMin {
				yMin = y
			}
			if y > yMax {
				yMax = y
			}
		}
	}
	if xMax < 0 {
		return entity.ScoredBox{}, false
	}

	area := (yMax - yMin) * (xMax - xMin)
	if area < minArea {
		return entity.ScoredBox{}, false
	}

	box := entity.BoundingBox{
		math.Floor(float64(yMin) / float64(height) * 1000),
		math.Floor(float64(xMin) / float64(width) * 1000),
		math.Floor(float64(yMax) / float64(height) * 1000),
		math.Floor(float64(xMax) / float64(width) * 1000),
	}
	confidence := math.Min(1, float64(area)/(float64(width)*float64(height)*0.01))
	return entity.ScoredBox{Box: box, Confidence: confidence}, true
}
