package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"skin-bot/internal/domain/entity"
	"skin-bot/internal/domain/port"
)

// AnalysisService — оркестратор полного анализа кожи: оценка показателей
// vision-моделью, сегментация масок, слияние маркеров, оверлей и отчёт.
// Каждый этап деградирует независимо: без модели работают резервные
// оценки, без сегментатора — локальная сегментация и типовые зоны.
type AnalysisService struct {
	describer port.SkinDescriber
	pipeline  *SegmentationPipeline
	meter     port.MaskMeter
	renderer  port.OverlayRenderer
	localSeg  *LocalSegmenter
	fusion    *MarkerFusionEngine
	history   port.HistoryRepository
	log       *slog.Logger
}

// NewAnalysisService создаёт сервис анализа. describer, meter, renderer
// и history могут быть nil.
func NewAnalysisService(
	describer port.SkinDescriber,
	pipeline *SegmentationPipeline,
	meter port.MaskMeter,
	renderer port.OverlayRenderer,
	localSeg *LocalSegmenter,
	fusion *MarkerFusionEngine,
	history port.HistoryRepository,
	log *slog.Logger,
) *AnalysisService {
	return &AnalysisService{
		describer: describer,
		pipeline:  pipeline,
		meter:     meter,
		renderer:  renderer,
		localSeg:  localSeg,
		fusion:    fusion,
		history:   history,
		log:       log,
	}
}

// Analyze выполняет полный анализ снимка по всем сегментируемым дефектам.
func (s *AnalysisService) Analyze(ctx context.Context, imageData []byte) (*entity.AnalysisResult, error) {
	return s.AnalyzeDefects(ctx, imageData, entity.SegmentableDefects())
}

// AnalyzeDefects выполняет полный анализ снимка по заданному списку
// дефектов. Ошибки отдельных этапов логируются и не прерывают анализ;
// ошибка возвращается только если не удалось получить вообще никаких
// данных.
func (s *AnalysisService) AnalyzeDefects(ctx context.Context, imageData []byte, defects []entity.DefectType) (*entity.AnalysisResult, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("пустое изображение")
	}

	scores, llmBoxes, method := s.describe(ctx, imageData)

	pipelineResult := s.pipeline.Run(ctx, imageData, defects)

	fineMarkers := s.fineMarkers(imageData, pipelineResult.MaskSets)

	// Локальная сегментация — резерв на случай, когда удалённый
	// сегментатор не дал ни одной маски.
	var localBoxes map[entity.DefectType][]entity.ScoredBox
	if len(fineMarkers) == 0 && s.localSeg != nil {
		boxes, err := s.localSeg.Segment(imageData)
		if err != nil {
			s.log.Warn("локальная сегментация не удалась", "error", err)
		} else {
			localBoxes = boxes
		}
	}

	report := s.report(ctx, scores)

	fusionResult := s.fusion.Fuse(FusionInput{
		Scores:      scores,
		FineMarkers: fineMarkers,
		LocalBoxes:  localBoxes,
		LLMBoxes:    llmBoxes,
		ReportText:  report,
	})

	overlay := ""
	if s.renderer != nil && len(pipelineResult.MaskSets) > 0 {
		rendered, err := s.renderer.CreateOverlay(ctx, imageData, pipelineResult.MaskSets)
		if err != nil {
			s.log.Warn("не удалось построить оверлей", "error", err)
		} else {
			overlay = rendered
		}
	}

	result := &entity.AnalysisResult{
		ID:           uuid.NewString(),
		Scores:       scores,
		Report:       report,
		Fusion:       fusionResult,
		Pipeline:     pipelineResult,
		OverlayImage: overlay,
		Method:       method,
		CreatedAt:    time.Now().UTC(),
	}

	if s.history != nil {
		if err := s.history.SaveAnalysis(ctx, result); err != nil {
			s.log.Warn("не удалось сохранить анализ в историю", "error", err)
		}
	}

	return result, nil
}

// describe получает показатели от vision-модели, при любой неудаче
// считает резервные оценки по самому снимку.
func (s *AnalysisService) describe(ctx context.Context, imageData []byte) (entity.SkinScores, map[entity.DefectType][]entity.BoundingBox, string) {
	if s.describer != nil {
		data, err := s.describer.DescribeSkin(ctx, imageData)
		if err != nil {
			s.log.Warn("vision-модель недоступна, используем резервные оценки", "error", err)
		} else if data != nil && !data.Scores.IsZero() {
			return data.Scores, data.BoundingBoxes, "llm"
		}
	}
	return FallbackScores(imageData), nil, "fallback"
}

// report генерирует текстовый отчёт, при неудаче собирает простой
// отчёт из показателей.
func (s *AnalysisService) report(ctx context.Context, scores entity.SkinScores) string {
	if s.describer != nil {
		report, err := s.describer.GenerateReport(ctx, scores)
		if err != nil {
			s.log.Warn("не удалось сгенерировать отчёт", "error", err)
		} else if report != "" {
			return report
		}
	}
	return FallbackReport(scores)
}

// fineMarkers строит точные маркеры по растрам выживших масок.
// Маски без скачанного растра и дефекты вне категорий слияния
// пропускаются.
func (s *AnalysisService) fineMarkers(imageData []byte, sets []entity.MaskSet) map[entity.DefectType][]FineMarker {
	if s.meter == nil || len(sets) == 0 {
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		s.log.Warn("не удалось определить размер изображения для маркеров", "error", err)
		return nil
	}

	markers := map[entity.DefectType][]FineMarker{}
	for _, set := range sets {
		category, ok := FineCategoryFor(set.Defect)
		if !ok {
			continue
		}
		for _, mask := range set.Masks {
			if mask.Data == nil {
				continue
			}
			marker, err := s.meter.Bounds(mask.Data, cfg.Width, cfg.Height)
			if err != nil {
				s.log.Warn("не удалось построить маркер по маске", "url", mask.URL, "error", err)
				continue
			}
			markers[category] = append(markers[category], FineMarker{Marker: marker})
		}
	}
	if len(markers) == 0 {
		return nil
	}
	return markers
}

// FallbackScores считает консервативные оценки по самому снимку,
// когда vision-модель недоступна: тон — средняя яркость, текстура —
// дисперсия яркости, остальные показатели нейтральные.
func FallbackScores(imageData []byte) entity.SkinScores {
	scores := entity.SkinScores{
		SkinTone: 50,
		Texture:  50,
		Moisture: 50,
		Oiliness: 50,
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return scores
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return scores
	}

	var sum, sumSq float64
	n := float64(width * height * 3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			for _, c := range [3]float64{float64(r >> 8), float64(g >> 8), float64(b >> 8)} {
				sum += c
				sumSq += c * c
			}
		}
	}

	mean := sum / n
	variance := sumSq/n - mean*mean

	scores.SkinTone = mean / 255 * 100
	scores.Texture = clampPercent(variance / 100)
	return scores
}

// FallbackReport собирает простой текстовый отчёт из показателей.
func FallbackReport(scores entity.SkinScores) string {
	return fmt.Sprintf("ОТЧЁТ О СОСТОЯНИИ КОЖИ\n\n"+
		"Акне: %.1f%%\n"+
		"Пигментация: %.1f%%\n"+
		"Размер пор: %.1f%%\n"+
		"Морщины: %.1f%%\n"+
		"Тон кожи: %.1f%%\n"+
		"Текстура: %.1f%%\n"+
		"Увлажненность: %.1f%%\n"+
		"Жирность: %.1f%%\n",
		scores.Acne, scores.Pigmentation, scores.Pores, scores.Wrinkles,
		scores.SkinTone, scores.Texture, scores.Moisture, scores.Oiliness)
}
