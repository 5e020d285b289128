//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"log/slog"

	"skin-bot/internal/domain/entity"
	"skin-bot/internal/domain/port"
)

// GoCVMaskMeter заглушка измерителя масок (без OpenCV).
type GoCVMaskMeter struct{}

// NewGoCVMaskMeter создаёт измеритель-заглушку.
func NewGoCVMaskMeter() *GoCVMaskMeter {
	return &GoCVMaskMeter{}
}

// Coverage возвращает ошибку, если сборка без тега gocv.
func (m *GoCVMaskMeter) Coverage(mask []byte, width, height int) (float64, error) {
	_ = mask
	_ = width
	_ = height
	return 0, errors.New("gocv build tag is not enabled")
}

// Bounds возвращает ошибку, если сборка без тега gocv.
func (m *GoCVMaskMeter) Bounds(mask []byte, width, height int) (entity.Marker, error) {
	_ = mask
	_ = width
	_ = height
	return entity.Marker{}, errors.New("gocv build tag is not enabled")
}

// GoCVOverlayRenderer заглушка рендера оверлея (без OpenCV).
type GoCVOverlayRenderer struct {
	log *slog.Logger
}

// NewGoCVOverlayRenderer создаёт рендер-заглушку.
func NewGoCVOverlayRenderer(log *slog.Logger) *GoCVOverlayRenderer {
	return &GoCVOverlayRenderer{log: log}
}

// CreateOverlay возвращает ошибку, если сборка без тега gocv.
func (r *GoCVOverlayRenderer) CreateOverlay(ctx context.Context, original []byte, sets []entity.MaskSet) (string, error) {
	_ = ctx
	_ = original
	_ = sets
	return "", errors.New("gocv build tag is not enabled")
}

// Проверка реализации интерфейсов
var (
	_ port.MaskMeter       = (*GoCVMaskMeter)(nil)
	_ port.OverlayRenderer = (*GoCVOverlayRenderer)(nil)
)
