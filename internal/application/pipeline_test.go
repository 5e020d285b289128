package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skin-bot/internal/domain/entity"
)

type fakeSegmenter struct {
	segmentFn func(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error)
	fetchFn   func(ctx context.Context, url string) ([]byte, error)
}

func (f *fakeSegmenter) Segment(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error) {
	return f.segmentFn(ctx, imageURL, prompt)
}

func (f *fakeSegmenter) FetchMask(ctx context.Context, url string) ([]byte, error) {
	if f.fetchFn == nil {
		return []byte(url), nil
	}
	return f.fetchFn(ctx, url)
}

type fakeUploader struct{ url string }

func (f *fakeUploader) Upload(ctx context.Context, image []byte) (string, error) {
	return f.url, nil
}

type fakeMeter struct {
	coverage map[string]float64 // ключ — содержимое растра маски
}

func (f *fakeMeter) Coverage(mask []byte, width, height int) (float64, error) {
	cov, ok := f.coverage[string(mask)]
	if !ok {
		return 0, errors.New("unknown mask")
	}
	return cov, nil
}

func (f *fakeMeter) Bounds(mask []byte, width, height int) (entity.Marker, error) {
	return entity.Marker{X: 50, Y: 50, Width: 10, Height: 10}, nil
}

type fakeDescriber struct {
	prompts map[entity.DefectType]string
}

func (f *fakeDescriber) DescribeSkin(ctx context.Context, image []byte) (*entity.SkinData, error) {
	return &entity.SkinData{}, nil
}

func (f *fakeDescriber) GenerateReport(ctx context.Context, scores entity.SkinScores) (string, error) {
	return "", nil
}

func (f *fakeDescriber) SuggestPrompts(ctx context.Context, image []byte) (map[entity.DefectType]string, error) {
	return f.prompts, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipeline_UnavailableSegmenter(t *testing.T) {
	p := NewSegmentationPipeline(nil, nil, nil, nil, nil, PipelineConfig{}, testLogger())

	result := p.Run(context.Background(), syntheticFace(t), entity.SegmentableDefects())

	require.Equal(t, []string{"❌ SAM3 недоступен (нет FAL_KEY)"}, result.Statuses)
	require.Empty(t, result.MaskSets)
}

func TestPipeline_TimeoutDoesNotStopOtherDefects(t *testing.T) {
	seg := &fakeSegmenter{
		segmentFn: func(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error) {
			if strings.Contains(prompt, "acne") {
				time.Sleep(300 * time.Millisecond)
				return nil, nil
			}
			return []entity.MaskRef{{URL: "https://masks/1.png"}}, nil
		},
	}
	p := NewSegmentationPipeline(seg, &fakeUploader{url: "https://img"}, nil, nil, nil,
		PipelineConfig{DefaultTimeout: 50 * time.Millisecond}, testLogger())

	result := p.Run(context.Background(), syntheticFace(t), []entity.DefectType{entity.DefectAcne, entity.DefectWrinkles})

	require.Len(t, result.MaskSets, 1)
	require.Equal(t, entity.DefectWrinkles, result.MaskSets[0].Defect)
	require.Equal(t, entity.SourceRemoteSegmenter, result.MaskSets[0].Source)

	joined := strings.Join(result.Statuses, "\n")
	require.Contains(t, joined, "ПРОПУЩЕНО")
	require.Contains(t, joined, "Морщины: 1 маск")
}

func TestPipeline_LongTimeoutFloorForNumerousDefects(t *testing.T) {
	seg := &fakeSegmenter{
		segmentFn: func(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error) {
			time.Sleep(30 * time.Millisecond)
			return []entity.MaskRef{{URL: "https://masks/m.png"}}, nil
		},
	}
	// Базовый таймаут заведомо меньше длительности вызова, но для родинок
	// он поднимается до минимума и вызов успевает.
	p := NewSegmentationPipeline(seg, &fakeUploader{url: "https://img"}, nil, nil, nil,
		PipelineConfig{DefaultTimeout: time.Millisecond}, testLogger())

	result := p.Run(context.Background(), syntheticFace(t), []entity.DefectType{entity.DefectMoles})

	require.Len(t, result.MaskSets, 1)
	require.NotContains(t, strings.Join(result.Statuses, "\n"), "ПРОПУЩЕНО")
}

func TestPipeline_CoverageFilterDropsLargeMasks(t *testing.T) {
	seg := &fakeSegmenter{
		segmentFn: func(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error) {
			return []entity.MaskRef{{URL: "small"}, {URL: "big"}}, nil
		},
	}
	meter := &fakeMeter{coverage: map[string]float64{"small": 10, "big": 40}}
	p := NewSegmentationPipeline(seg, &fakeUploader{url: "https://img"}, nil, meter, nil,
		PipelineConfig{DefaultTimeout: time.Second, MaxCoveragePercent: 25}, testLogger())

	result := p.Run(context.Background(), syntheticFace(t), []entity.DefectType{entity.DefectAcne})

	require.Len(t, result.MaskSets, 1)
	require.Len(t, result.MaskSets[0].Masks, 1)
	require.Equal(t, "small", result.MaskSets[0].Masks[0].URL)
	// Скачанный растр закэширован для рендера оверлея.
	require.Equal(t, []byte("small"), result.MaskSets[0].Masks[0].Data)

	require.Contains(t, strings.Join(result.Statuses, "\n"), "отфильтровано 1 больших масок")
}

func TestPipeline_CoverageFilterFailsOpen(t *testing.T) {
	seg := &fakeSegmenter{
		segmentFn: func(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error) {
			return []entity.MaskRef{{URL: "broken"}}, nil
		},
		fetchFn: func(ctx context.Context, url string) ([]byte, error) {
			return nil, errors.New("503")
		},
	}
	meter := &fakeMeter{coverage: map[string]float64{}}
	p := NewSegmentationPipeline(seg, &fakeUploader{url: "https://img"}, nil, meter, nil,
		PipelineConfig{DefaultTimeout: time.Second, MaxCoveragePercent: 25}, testLogger())

	result := p.Run(context.Background(), syntheticFace(t), []entity.DefectType{entity.DefectAcne})

	// Ошибка загрузки маски не должна её отбрасывать.
	require.Len(t, result.MaskSets, 1)
	require.Len(t, result.MaskSets[0].Masks, 1)
	require.Equal(t, "broken", result.MaskSets[0].Masks[0].URL)
}

func TestPipeline_LLMPreanalysisOverridesPrompt(t *testing.T) {
	var gotPrompt string
	seg := &fakeSegmenter{
		segmentFn: func(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error) {
			gotPrompt = prompt
			return nil, nil
		},
	}
	describer := &fakeDescriber{prompts: map[entity.DefectType]string{
		entity.DefectAcne: "custom acne prompt",
	}}
	p := NewSegmentationPipeline(seg, &fakeUploader{url: "https://img"}, describer, nil, nil,
		PipelineConfig{DefaultTimeout: time.Second, UseLLMPreanalysis: true}, testLogger())

	result := p.Run(context.Background(), syntheticFace(t), []entity.DefectType{entity.DefectAcne})

	require.Equal(t, "custom acne prompt", gotPrompt)
	require.Contains(t, strings.Join(result.Statuses, "\n"), "LLM сгенерировал 1 улучшенных промптов")
}
