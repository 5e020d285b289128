//go:build gocv
// +build gocv

package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"gocv.io/x/gocv"

	"skin-bot/internal/domain/entity"
	"skin-bot/internal/domain/port"
)

// GoCVOverlayRenderer собирает итоговую картинку: затемнённая копия
// оригинала, цветная заливка каждой маски, белая обводка, двойное
// свечение, подписи и финальное усиление контраста и цвета.
type GoCVOverlayRenderer struct {
	log *slog.Logger
}

// NewGoCVOverlayRenderer создаёт рендер оверлея.
func NewGoCVOverlayRenderer(log *slog.Logger) *GoCVOverlayRenderer {
	return &GoCVOverlayRenderer{log: log}
}

type maskCaption struct {
	center image.Point
	text   string
}

// CreateOverlay накладывает все маски на копию оригинала и возвращает
// JPEG как base64 data URI. Если ни одна маска не легла, возвращает
// пустую строку без ошибки.
func (r *GoCVOverlayRenderer) CreateOverlay(ctx context.Context, original []byte, sets []entity.MaskSet) (result string, err error) {
	_ = ctx

	// Повреждённый растр маски не должен ронять весь анализ.
	defer func() {
		if rec := recover(); rec != nil {
			result = ""
			err = fmt.Errorf("overlay panic: %v", rec)
		}
	}()

	base, decErr := gocv.IMDecode(original, gocv.IMReadColor)
	if decErr != nil || base.Empty() {
		if !base.Empty() {
			base.Close()
		}
		return "", errors.New("failed to decode image")
	}
	defer base.Close()

	width, height := base.Cols(), base.Rows()

	// Затемняем копию: маски должны читаться на любом фоне.
	canvas := gocv.NewMat()
	defer canvas.Close()
	base.ConvertTo(&canvas, gocv.MatTypeCV32FC3)
	canvas.MultiplyFloat(0.25)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	totalMasks := 0
	var captions []maskCaption

	for _, set := range sets {
		clr := set.Defect.Info().Color
		for i, mask := range set.Masks {
			if mask.Data == nil {
				r.log.Warn("маска без растра пропущена", "defect", set.Defect, "url", mask.URL)
				continue
			}

			bin, err := decodeBinaryMask(mask.Data, width, height)
			if err != nil {
				r.log.Warn("не удалось декодировать маску", "defect", set.Defect, "index", i, "error", err)
				continue
			}

			if gocv.CountNonZero(bin) == 0 {
				bin.Close()
				r.log.Warn("пустая маска пропущена", "defect", set.Defect, "index", i)
				continue
			}

			if center, ok := maskCentroid(bin); ok {
				captions = append(captions, maskCaption{center: center, text: strings.ToUpper(string(set.Defect))})
			}

			r.composite(&canvas, bin, kernel, clr)
			bin.Close()
			totalMasks++
		}
	}

	if totalMasks == 0 {
		return "", nil
	}

	out := gocv.NewMat()
	defer out.Close()
	canvas.ConvertTo(&out, gocv.MatTypeCV8UC3)

	drawCaptions(&out, captions, width, height)
	applyFinalEnhancement(&out)

	buf, encErr := gocv.IMEncodeWithParams(gocv.JPEGFileExt, out, []int{gocv.IMWriteJpegQuality, 95})
	if encErr != nil {
		return "", fmt.Errorf("encode overlay: %w", encErr)
	}
	defer buf.Close()

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.GetBytes()), nil
}

// composite накладывает на холст слои одной маски в порядке: внешнее
// свечение, внутреннее свечение, заливка, белая обводка.
func (r *GoCVOverlayRenderer) composite(canvas *gocv.Mat, bin gocv.Mat, kernel gocv.Mat, clr entity.RGB) {
	colorScalar := gocv.NewScalar(float64(clr.B), float64(clr.G), float64(clr.R), 0)
	white := gocv.NewScalar(255, 255, 255, 0)

	dilated7 := dilateIter(bin, kernel, 7)
	defer dilated7.Close()
	eroded1 := erodeIter(bin, kernel, 1)
	defer eroded1.Close()

	border := gocv.NewMat()
	defer border.Close()
	gocv.Subtract(dilated7, eroded1, &border)

	glowInner := glowLayer(bin, kernel, 15, 7)
	defer glowInner.Close()
	glowOuter := glowLayer(bin, kernel, 25, 12)
	defer glowOuter.Close()

	blendLayer(canvas, glowOuter, colorScalar, 120.0/255)
	blendLayer(canvas, glowInner, colorScalar, 200.0/255)
	blendLayer(canvas, bin, colorScalar, 1)
	blendLayer(canvas, border, white, 1)
}

// glowLayer строит размытый ореол вокруг маски: расширение минус сама
// маска, затем гауссово размытие.
func glowLayer(bin gocv.Mat, kernel gocv.Mat, iterations int, sigma float64) gocv.Mat {
	dilated := dilateIter(bin, kernel, iterations)
	defer dilated.Close()

	ring := gocv.NewMat()
	defer ring.Close()
	gocv.Subtract(dilated, bin, &ring)

	blurred := gocv.NewMat()
	gocv.GaussianBlur(ring, &blurred, image.Pt(0, 0), sigma, sigma, gocv.BorderDefault)
	return blurred
}

// blendLayer выполняет альфа-смешивание: canvas = canvas*(1-a) + color*a,
// где a — нормированная маска, умноженная на maxAlpha. canvas — CV32FC3.
func blendLayer(canvas *gocv.Mat, mask gocv.Mat, clr gocv.Scalar, maxAlpha float64) {
	alpha := gocv.NewMat()
	defer alpha.Close()
	mask.ConvertTo(&alpha, gocv.MatTypeCV32F)
	alpha.DivideFloat(255)
	alpha.MultiplyFloat(float32(maxAlpha))

	alpha3 := gocv.NewMat()
	defer alpha3.Close()
	gocv.Merge([]gocv.Mat{alpha, alpha, alpha}, &alpha3)

	ones := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 1, 1, 0), canvas.Rows(), canvas.Cols(), gocv.MatTypeCV32FC3)
	defer ones.Close()

	inv := gocv.NewMat()
	defer inv.Close()
	gocv.Subtract(ones, alpha3, &inv)

	keep := gocv.NewMat()
	defer keep.Close()
	gocv.Multiply(*canvas, inv, &keep)

	colorMat := gocv.NewMatWithSizeFromScalar(clr, canvas.Rows(), canvas.Cols(), gocv.MatTypeCV32FC3)
	defer colorMat.Close()

	add := gocv.NewMat()
	defer add.Close()
	gocv.Multiply(colorMat, alpha3, &add)

	gocv.Add(keep, add, canvas)
}

// maskCentroid возвращает центр масс переднего плана маски.
func maskCentroid(bin gocv.Mat) (image.Point, bool) {
	moments := gocv.Moments(bin, true)
	m00 := moments["m00"]
	if m00 == 0 {
		return image.Point{}, false
	}
	return image.Pt(int(moments["m10"]/m00), int(moments["m01"]/m00)), true
}

// drawCaptions подписывает маски в их центрах: чёрная обводка из 24
// смещений плюс белый текст поверх. Hershey-шрифты OpenCV не содержат
// кириллицы, поэтому подписи рисуются латинским ключом дефекта.
func drawCaptions(out *gocv.Mat, captions []maskCaption, width, height int) {
	if len(captions) == 0 {
		return
	}

	sizePx := min(width, height) / 30
	if sizePx < 20 {
		sizePx = 20
	}
	scale := float64(sizePx) / 25
	const thickness = 2

	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	for _, caption := range captions {
		textSize := gocv.GetTextSize(caption.text, gocv.FontHersheySimplex, scale, thickness)
		org := image.Pt(caption.center.X-textSize.X/2, caption.center.Y+textSize.Y/2)

		for dx := -2; dx <= 2; dx++ {
			for dy := -2; dy <= 2; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				gocv.PutText(out, caption.text, image.Pt(org.X+dx, org.Y+dy), gocv.FontHersheySimplex, scale, black, thickness)
			}
		}
		gocv.PutText(out, caption.text, org, gocv.FontHersheySimplex, scale, white, thickness)
	}
}

// applyFinalEnhancement усиливает контраст, насыщенность и яркость
// затемнённой картинки и добавляет резкость.
func applyFinalEnhancement(out *gocv.Mat) {
	// Контраст ×2.2 вокруг средней яркости.
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*out, &gray, gocv.ColorBGRToGray)
	mean := gray.Mean().Val1

	f := gocv.NewMat()
	defer f.Close()
	out.ConvertTo(&f, gocv.MatTypeCV32FC3)
	f.SubtractFloat(float32(mean))
	f.MultiplyFloat(2.2)
	f.AddFloat(float32(mean))
	f.ConvertTo(out, gocv.MatTypeCV8UC3)

	// Насыщенность ×2.5 через HSV.
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(*out, &hsv, gocv.ColorBGRToHSV)
	channels := gocv.Split(hsv)
	channels[1].MultiplyFloat(2.5)
	gocv.Merge(channels, &hsv)
	for i := range channels {
		channels[i].Close()
	}
	gocv.CvtColor(hsv, out, gocv.ColorHSVToBGR)

	// Яркость ×1.3.
	out.MultiplyFloat(1.3)

	// Резкость: ядро 3x3 (-2 … 32 … -2)/16.
	sharpen := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer sharpen.Close()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			v := float32(-2.0 / 16)
			if row == 1 && col == 1 {
				v = 32.0 / 16
			}
			sharpen.SetFloatAt(row, col, v)
		}
	}
	gocv.Filter2D(*out, out, -1, sharpen, image.Pt(-1, -1), 0, gocv.BorderDefault)
}

// dilateIter выполняет n итераций расширения ядром 3x3.
func dilateIter(src gocv.Mat, kernel gocv.Mat, iterations int) gocv.Mat {
	out := src.Clone()
	for i := 0; i < iterations; i++ {
		gocv.Dilate(out, &out, kernel)
	}
	return out
}

// erodeIter выполняет n итераций сужения ядром 3x3.
func erodeIter(src gocv.Mat, kernel gocv.Mat, iterations int) gocv.Mat {
	out := src.Clone()
	for i := 0; i < iterations; i++ {
		gocv.Erode(out, &out, kernel)
	}
	return out
}

// Проверка реализации интерфейса
var _ port.OverlayRenderer = (*GoCVOverlayRenderer)(nil)
