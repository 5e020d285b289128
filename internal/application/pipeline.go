package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"time"

	"skin-bot/internal/domain/entity"
	"skin-bot/internal/domain/port"
	"skin-bot/internal/knowledge"
)

// PipelineConfig — настройки сегментационного пайплайна.
type PipelineConfig struct {
	// DefaultTimeout — таймаут одного вызова сегментатора. Для дефектов
	// с множеством мелких экземпляров поднимается минимум до 10 секунд.
	DefaultTimeout time.Duration

	// MaxCoveragePercent — маски с большим покрытием отбрасываются:
	// нас интересуют точечные изменения, а не «всё лицо».
	MaxCoveragePercent float64

	// UseLLMPreanalysis включает преданализ изображения vision-моделью
	// для генерации уточнённых промптов.
	UseLLMPreanalysis bool
}

// longTimeoutFloor — минимальный таймаут для многочисленных образований.
const longTimeoutFloor = 10 * time.Second

// SegmentationPipeline последовательно прогоняет дефекты через удалённый
// сегментатор. Каждый дефект изолирован: таймаут или ошибка одного не
// прерывает обработку остальных. Ход работы пишется в статус-лог.
type SegmentationPipeline struct {
	segmenter port.RemoteSegmenter
	uploader  port.ImageUploader
	describer port.SkinDescriber
	meter     port.MaskMeter
	kb        *knowledge.Base
	cfg       PipelineConfig
	log       *slog.Logger
}

// NewSegmentationPipeline создаёт пайплайн. segmenter, uploader, describer
// и meter могут быть nil: пайплайн деградирует, а не падает.
func NewSegmentationPipeline(
	segmenter port.RemoteSegmenter,
	uploader port.ImageUploader,
	describer port.SkinDescriber,
	meter port.MaskMeter,
	kb *knowledge.Base,
	cfg PipelineConfig,
	log *slog.Logger,
) *SegmentationPipeline {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 5 * time.Second
	}
	if cfg.MaxCoveragePercent <= 0 {
		cfg.MaxCoveragePercent = 25
	}
	return &SegmentationPipeline{
		segmenter: segmenter,
		uploader:  uploader,
		describer: describer,
		meter:     meter,
		kb:        kb,
		cfg:       cfg,
		log:       log,
	}
}

// Run сегментирует изображение по списку дефектов и возвращает наборы
// масок в порядке обхода плюс статус-лог.
func (p *SegmentationPipeline) Run(ctx context.Context, imageData []byte, defects []entity.DefectType) *entity.PipelineResult {
	var statusLog entity.StatusLog

	if p.segmenter == nil || p.uploader == nil {
		statusLog.Add("❌ SAM3 недоступен (нет FAL_KEY)")
		return &entity.PipelineResult{Statuses: statusLog.Lines()}
	}

	llmPrompts := p.preanalyze(ctx, imageData, &statusLog)

	imageURL, err := p.uploader.Upload(ctx, imageData)
	if err != nil {
		p.log.Warn("не удалось загрузить изображение", "error", err)
		statusLog.Add("⚠️ Не удалось загрузить изображение: %v", err)
		return &entity.PipelineResult{Statuses: statusLog.Lines()}
	}

	// Размер нужен только для фильтра покрытия. Без него маски
	// проходят без проверки.
	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData)); err == nil {
		width, height = cfg.Width, cfg.Height
	} else {
		p.log.Warn("не удалось определить размер изображения", "error", err)
	}

	var sets []entity.MaskSet
	total := len(defects)
	for idx, defect := range defects {
		info := defect.Info()
		statusLog.Add("🔍 [%d/%d] %s", idx+1, total, strings.ToUpper(info.Label))

		timeout := p.cfg.DefaultTimeout
		if info.LongTimeout && timeout < longTimeoutFloor {
			timeout = longTimeoutFloor
		}

		prompt := p.promptFor(defect, info, llmPrompts)

		start := time.Now()
		masks, err := RunWithTimeout(ctx, timeout, func(ctx context.Context) ([]entity.MaskRef, error) {
			return p.segmenter.Segment(ctx, imageURL, prompt)
		})
		elapsed := time.Since(start).Seconds()

		switch {
		case errors.Is(err, ErrTimeout):
			statusLog.Add("⏱️ ПРОПУЩЕНО (таймаут %dс) для %s", int(timeout.Seconds()), defect)
			continue
		case err != nil:
			statusLog.Add("⚠️ Ошибка сегментации для %s: %v", defect, err)
			continue
		case len(masks) == 0:
			statusLog.Add("⚪ %s: нет масок (%.1fс)", info.Label, elapsed)
			continue
		}

		p.fetchMasks(ctx, masks)

		originalCount := len(masks)
		filtered := p.filterByCoverage(masks, width, height)
		switch {
		case len(filtered) == 0:
			statusLog.Add("⚪ %s: все маски отфильтрованы (слишком большие) (%.1fс)", info.Label, elapsed)
		case len(filtered) < originalCount:
			statusLog.Add("✅ %s: %d маск (отфильтровано %d больших масок) (%.1fс)",
				info.Label, len(filtered), originalCount-len(filtered), elapsed)
		default:
			statusLog.Add("✅ %s: %d маск (%.1fс)", info.Label, len(filtered), elapsed)
		}

		if len(filtered) > 0 {
			sets = append(sets, entity.MaskSet{
				Defect: defect,
				Source: entity.SourceRemoteSegmenter,
				Masks:  filtered,
			})
		}
	}

	return &entity.PipelineResult{Statuses: statusLog.Lines(), MaskSets: sets}
}

// preanalyze запрашивает у vision-модели уточнённые промпты. Любая
// неудача деградирует к промптам из базы знаний.
func (p *SegmentationPipeline) preanalyze(ctx context.Context, imageData []byte, statusLog *entity.StatusLog) map[entity.DefectType]string {
	if !p.cfg.UseLLMPreanalysis || p.describer == nil {
		return nil
	}

	statusLog.Add("🧠 LLM ПРЕДАНАЛИЗ: генерация улучшенных промптов...")
	prompts, err := RunWithTimeout(ctx, 30*time.Second, func(ctx context.Context) (map[entity.DefectType]string, error) {
		return p.describer.SuggestPrompts(ctx, imageData)
	})
	if err != nil {
		p.log.Warn("ошибка LLM преданализа", "error", err)
		statusLog.Add("ℹ️ LLM преданализ пропущен, используем промпты из базы знаний")
		return nil
	}
	if len(prompts) == 0 {
		statusLog.Add("ℹ️ LLM преданализ недоступен, используем промпты из базы знаний")
		return nil
	}
	statusLog.Add("✅ LLM сгенерировал %d улучшенных промптов", len(prompts))
	return prompts
}

// promptFor выбирает промпт: LLM-преданализ важнее базы знаний,
// база знаний важнее базового промпта из реестра.
func (p *SegmentationPipeline) promptFor(defect entity.DefectType, info entity.DefectInfo, llmPrompts map[entity.DefectType]string) string {
	if prompt, ok := llmPrompts[defect]; ok && prompt != "" {
		return prompt
	}
	if p.kb != nil {
		return p.kb.EnhancePrompt(defect, info.Prompt)
	}
	return info.Prompt
}

// fetchMasks скачивает растры масок и кэширует их в MaskRef.Data:
// они нужны и фильтру покрытия, и рендеру оверлея, и построению
// точных маркеров. Ошибка загрузки оставляет Data пустым.
func (p *SegmentationPipeline) fetchMasks(ctx context.Context, masks []entity.MaskRef) {
	for i := range masks {
		data, err := p.segmenter.FetchMask(ctx, masks[i].URL)
		if err != nil {
			p.log.Warn("не удалось скачать маску", "url", masks[i].URL, "error", err)
			continue
		}
		masks[i].Data = data
	}
}

// filterByCoverage отбрасывает маски с покрытием больше порога.
// Фильтр «мягкий»: при любой ошибке загрузки или измерения маска
// проходит без проверки.
func (p *SegmentationPipeline) filterByCoverage(masks []entity.MaskRef, width, height int) []entity.MaskRef {
	if p.meter == nil || width == 0 || height == 0 {
		return masks
	}

	filtered := make([]entity.MaskRef, 0, len(masks))
	for _, mask := range masks {
		if mask.Data == nil {
			filtered = append(filtered, mask)
			continue
		}

		coverage, err := p.meter.Coverage(mask.Data, width, height)
		if err != nil {
			p.log.Warn("не удалось измерить покрытие маски", "url", mask.URL, "error", err)
			filtered = append(filtered, mask)
			continue
		}

		if coverage <= p.cfg.MaxCoveragePercent {
			filtered = append(filtered, mask)
		} else {
			p.log.Info("маска отфильтрована", "coverage", coverage, "max", p.cfg.MaxCoveragePercent)
		}
	}
	return filtered
}
