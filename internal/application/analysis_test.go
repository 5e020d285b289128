package app

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skin-bot/internal/domain/entity"
	"skin-bot/internal/domain/port"
)

type stubDescriber struct {
	data      *entity.SkinData
	dataErr   error
	report    string
	reportErr error
}

func (s *stubDescriber) DescribeSkin(ctx context.Context, image []byte) (*entity.SkinData, error) {
	return s.data, s.dataErr
}

func (s *stubDescriber) GenerateReport(ctx context.Context, scores entity.SkinScores) (string, error) {
	return s.report, s.reportErr
}

func (s *stubDescriber) SuggestPrompts(ctx context.Context, image []byte) (map[entity.DefectType]string, error) {
	return nil, nil
}

type stubRenderer struct {
	overlay string
	err     error
}

func (s *stubRenderer) CreateOverlay(ctx context.Context, original []byte, sets []entity.MaskSet) (string, error) {
	return s.overlay, s.err
}

type stubHistory struct {
	saved []*entity.AnalysisResult
	err   error
}

func (s *stubHistory) SaveAnalysis(ctx context.Context, result *entity.AnalysisResult) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, result)
	return nil
}

func (s *stubHistory) Recent(ctx context.Context, limit int) ([]entity.AnalysisSummary, error) {
	return nil, nil
}

func newAnalysisService(describer *stubDescriber, seg *fakeSegmenter, meter *fakeMeter, renderer *stubRenderer, history *stubHistory) *AnalysisService {
	log := testLogger()

	var meterPort port.MaskMeter
	if meter != nil {
		meterPort = meter
	}

	var pipeline *SegmentationPipeline
	if seg != nil {
		pipeline = NewSegmentationPipeline(seg, &fakeUploader{url: "https://img"}, nil, meterPort,
			nil, PipelineConfig{DefaultTimeout: time.Second}, log)
	} else {
		pipeline = NewSegmentationPipeline(nil, nil, nil, nil, nil, PipelineConfig{}, log)
	}

	fusion := NewMarkerFusionEngine(rand.New(rand.NewSource(1)), log)

	svc := NewAnalysisService(nil, pipeline, nil, nil, &LocalSegmenter{}, fusion, nil, log)
	if describer != nil {
		svc.describer = describer
	}
	if meter != nil {
		svc.meter = meter
	}
	if renderer != nil {
		svc.renderer = renderer
	}
	if history != nil {
		svc.history = history
	}
	return svc
}

func TestAnalyze_FallbackWithoutDescriberAndSegmenter(t *testing.T) {
	svc := newAnalysisService(nil, nil, nil, nil, nil)

	result, err := svc.Analyze(context.Background(), syntheticFace(t))
	require.NoError(t, err)

	require.Equal(t, "fallback", result.Method)
	require.NotEmpty(t, result.ID)
	// Резервные оценки: основные показатели нулевые, вспомогательные нейтральные.
	require.Zero(t, result.Scores.Acne)
	require.Equal(t, 50.0, result.Scores.Moisture)
	require.Greater(t, result.Scores.SkinTone, 0.0)
	require.Contains(t, result.Report, "ОТЧЁТ О СОСТОЯНИИ КОЖИ")
	require.NotNil(t, result.Fusion)
	require.Contains(t, result.Pipeline.Statuses[0], "SAM3 недоступен")
	require.Empty(t, result.OverlayImage)
}

func TestAnalyze_LLMScoresAndFineMarkers(t *testing.T) {
	describer := &stubDescriber{
		data: &entity.SkinData{
			Scores: entity.SkinScores{Acne: 65, Pigmentation: 20, Pores: 20, Wrinkles: 20, SkinTone: 50, Texture: 50, Moisture: 60, Oiliness: 50},
		},
		report: "Кожа в основном чистая, единичные воспаления.",
	}
	seg := &fakeSegmenter{
		segmentFn: func(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error) {
			if strings.Contains(prompt, "inflamed red bumps") {
				return []entity.MaskRef{{URL: "acne-mask"}}, nil
			}
			return nil, nil
		},
	}
	meter := &fakeMeter{coverage: map[string]float64{"acne-mask": 5}}
	renderer := &stubRenderer{overlay: "data:image/jpeg;base64,xxx"}
	history := &stubHistory{}

	svc := newAnalysisService(describer, seg, meter, renderer, history)

	result, err := svc.Analyze(context.Background(), syntheticFace(t))
	require.NoError(t, err)

	require.Equal(t, "llm", result.Method)
	require.Equal(t, 65.0, result.Scores.Acne)
	require.Equal(t, "Кожа в основном чистая, единичные воспаления.", result.Report)

	// Маска акне дала точный маркер, слияние использовало его.
	acne := concernsFor(result.Fusion.Concerns, entity.DefectAcne)
	require.Len(t, acne, 1)
	require.True(t, acne[0].IsArea)
	require.Equal(t, methodMaskSegmentation, result.Fusion.PrimaryMethod)

	require.Equal(t, "data:image/jpeg;base64,xxx", result.OverlayImage)
	require.Len(t, history.saved, 1)
	require.Equal(t, result.ID, history.saved[0].ID)
}

func TestAnalyze_RendererErrorDoesNotFailAnalysis(t *testing.T) {
	seg := &fakeSegmenter{
		segmentFn: func(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error) {
			return []entity.MaskRef{{URL: "m"}}, nil
		},
	}
	renderer := &stubRenderer{err: errors.New("gocv build tag is not enabled")}

	svc := newAnalysisService(nil, seg, nil, renderer, nil)

	result, err := svc.Analyze(context.Background(), syntheticFace(t))
	require.NoError(t, err)
	require.Empty(t, result.OverlayImage)
	require.NotEmpty(t, result.Pipeline.MaskSets)
}

func TestAnalyze_HistoryErrorIsLoggedOnly(t *testing.T) {
	history := &stubHistory{err: errors.New("connection refused")}
	svc := newAnalysisService(nil, nil, nil, nil, history)

	result, err := svc.Analyze(context.Background(), syntheticFace(t))
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestAnalyze_EmptyImage(t *testing.T) {
	svc := newAnalysisService(nil, nil, nil, nil, nil)

	_, err := svc.Analyze(context.Background(), nil)
	require.Error(t, err)
}

func TestFallbackReport_ContainsAllScores(t *testing.T) {
	report := FallbackReport(entity.SkinScores{Acne: 12.3, Moisture: 45.6})
	require.Contains(t, report, "Акне: 12.3%")
	require.Contains(t, report, "Увлажненность: 45.6%")
}
