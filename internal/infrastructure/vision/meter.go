//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"

	"skin-bot/internal/domain/entity"
	"skin-bot/internal/domain/port"
)

// GoCVMaskMeter измеряет растры масок сегментатора через OpenCV.
type GoCVMaskMeter struct{}

// NewGoCVMaskMeter создаёт измеритель масок.
func NewGoCVMaskMeter() *GoCVMaskMeter {
	return &GoCVMaskMeter{}
}

// Coverage возвращает процент пикселей переднего плана после приведения
// маски к размеру изображения. Передним планом считаются пиксели ярче 127.
func (m *GoCVMaskMeter) Coverage(mask []byte, width, height int) (float64, error) {
	bin, err := decodeBinaryMask(mask, width, height)
	if err != nil {
		return 0, err
	}
	defer bin.Close()

	total := width * height
	if total <= 0 {
		return 0, errors.New("invalid image size")
	}
	return float64(gocv.CountNonZero(bin)) / float64(total) * 100, nil
}

// Bounds возвращает маркер по габаритам переднего плана маски.
// Координаты — левый верхний угол и размеры в процентах от изображения.
func (m *GoCVMaskMeter) Bounds(mask []byte, width, height int) (entity.Marker, error) {
	bin, err := decodeBinaryMask(mask, width, height)
	if err != nil {
		return entity.Marker{}, err
	}
	defer bin.Close()

	if gocv.CountNonZero(bin) == 0 {
		return entity.Marker{}, errors.New("empty mask")
	}

	contours := gocv.FindContours(bin, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return entity.Marker{}, errors.New("empty mask")
	}

	union := gocv.BoundingRect(contours.At(0))
	for i := 1; i < contours.Size(); i++ {
		union = union.Union(gocv.BoundingRect(contours.At(i)))
	}

	return entity.Marker{
		X:      float64(union.Min.X) / float64(width) * 100,
		Y:      float64(union.Min.Y) / float64(height) * 100,
		Width:  float64(union.Dx()) / float64(width) * 100,
		Height: float64(union.Dy()) / float64(height) * 100,
	}, nil
}

// decodeBinaryMask декодирует маску в одноканальный растр, приводит её
// к размеру изображения и бинаризует по порогу 127.
func decodeBinaryMask(mask []byte, width, height int) (gocv.Mat, error) {
	gray, err := gocv.IMDecode(mask, gocv.IMReadGrayScale)
	if err != nil || gray.Empty() {
		gray.Close()
		return gocv.NewMat(), errors.New("failed to decode mask")
	}
	defer gray.Close()

	if gray.Cols() != width || gray.Rows() != height {
		resized := gocv.NewMat()
		gocv.Resize(gray, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLanczos4)
		gray.Close()
		gray = resized
	}

	bin := gocv.NewMat()
	gocv.Threshold(gray, &bin, 127, 255, gocv.ThresholdBinary)
	return bin, nil
}

// Проверка реализации интерфейса
var _ port.MaskMeter = (*GoCVMaskMeter)(nil)
