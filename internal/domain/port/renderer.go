package port

import (
	"context"

	"skin-bot/internal/domain/entity"
)

// OverlayRenderer интерфейс построителя итоговой визуализации.
type OverlayRenderer interface {
	// CreateOverlay накладывает маски на копию оригинала и возвращает
	// JPEG как base64 data URI. Пустая строка без ошибки означает,
	// что рисовать было нечего.
	CreateOverlay(ctx context.Context, original []byte, sets []entity.MaskSet) (string, error)
}

// MaskMeter интерфейс растровых измерений маски.
type MaskMeter interface {
	// Coverage возвращает долю пикселей переднего плана в процентах
	// после приведения маски к размеру изображения
	Coverage(mask []byte, width, height int) (float64, error)

	// Bounds возвращает маркер по габаритам переднего плана маски
	// в процентах от размера изображения
	Bounds(mask []byte, width, height int) (entity.Marker, error)
}
