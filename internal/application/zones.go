package app

import (
	"math/rand"

	"skin-bot/internal/domain/entity"
)

// faceZone — типовая зона лица на фронтальном портрете. Координаты в
// процентах от размера изображения и подобраны под кадрирование
// «лицо занимает большую часть кадра».
type faceZone struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Shape  entity.MarkerShape
}

var faceZones = map[string]faceZone{
	"forehead":    {X: 50, Y: 20, Width: 40, Height: 15, Shape: entity.ShapeEllipse},
	"left_cheek":  {X: 25, Y: 45, Width: 20, Height: 25, Shape: entity.ShapeEllipse},
	"right_cheek": {X: 75, Y: 45, Width: 20, Height: 25, Shape: entity.ShapeEllipse},
	"nose":        {X: 50, Y: 50, Width: 15, Height: 20, Shape: entity.ShapeEllipse},
	"chin":        {X: 50, Y: 75, Width: 25, Height: 15, Shape: entity.ShapeEllipse},
	"t_zone":      {X: 50, Y: 40, Width: 30, Height: 30, Shape: entity.ShapePolygon},
	"u_zone":      {X: 50, Y: 55, Width: 50, Height: 30, Shape: entity.ShapePolygon},
	"periorbital": {X: 50, Y: 35, Width: 35, Height: 20, Shape: entity.ShapeEllipse},
	"perioral":    {X: 50, Y: 65, Width: 25, Height: 15, Shape: entity.ShapeEllipse},
}

// concernZones — зоны, типичные для каждой категории проблем,
// в порядке убывания характерности.
var concernZones = map[string][]string{
	"acne":         {"t_zone", "left_cheek", "right_cheek", "chin"},
	"pigmentation": {"left_cheek", "right_cheek", "forehead"},
	"pores":        {"t_zone", "nose"},
	"wrinkles":     {"forehead", "u_zone"},
	"hydration":    {"left_cheek", "right_cheek", "u_zone"},
	"oiliness":     {"t_zone", "nose"},
}

// PlaceInZone выбирает типовую зону для категории и кладёт в неё маркер
// со случайным сдвигом центра до ±5%, чтобы маркеры разных категорий
// не слипались. Чем выше значение показателя, тем характернее зона:
// при низких значениях берётся последняя (наименее типичная) зона.
func PlaceInZone(category string, value float64, rng *rand.Rand) (entity.Marker, bool) {
	zones, ok := concernZones[category]
	if !ok || len(zones) == 0 {
		return entity.Marker{}, false
	}

	var name string
	switch {
	case value > 70:
		name = zones[0]
	case value > 50:
		name = zones[0]
	default:
		name = zones[len(zones)-1]
	}

	zone, ok := faceZones[name]
	if !ok {
		return entity.Marker{}, false
	}

	jitter := func() float64 { return (rng.Float64() - 0.5) * 10 }
	return entity.Marker{
		X:      clampPercent(zone.X + jitter()),
		Y:      clampPercent(zone.Y + jitter()),
		Width:  zone.Width,
		Height: zone.Height,
		Shape:  zone.Shape,
		Zone:   name,
	}, true
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
