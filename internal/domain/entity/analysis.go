package entity

import (
	"fmt"
	"time"
)

// SkinScores — числовые показатели состояния кожи (0–100).
type SkinScores struct {
	Acne         float64 `json:"acne_score"`
	Pigmentation float64 `json:"pigmentation_score"`
	Pores        float64 `json:"pores_size"`
	Wrinkles     float64 `json:"wrinkles_grade"`
	SkinTone     float64 `json:"skin_tone"`
	Texture      float64 `json:"texture_score"`
	Moisture     float64 `json:"moisture_level"`
	Oiliness     float64 `json:"oiliness"`
}

// Average возвращает среднее по четырём основным показателям.
func (s SkinScores) Average() float64 {
	return (s.Acne + s.Pigmentation + s.Pores + s.Wrinkles) / 4
}

// IsZero сообщает, что все показатели нулевые (модель ничего не вернула).
func (s SkinScores) IsZero() bool {
	return s.Acne == 0 && s.Pigmentation == 0 && s.Pores == 0 && s.Wrinkles == 0 &&
		s.SkinTone == 0 && s.Texture == 0 && s.Moisture == 0 && s.Oiliness == 0
}

// SkinData — ответ vision-модели: показатели плюс опциональные
// bounding boxes по типам дефектов.
type SkinData struct {
	Scores        SkinScores
	BoundingBoxes map[DefectType][]BoundingBox
}

// StatusLog — упорядоченный журнал шагов пайплайна. Только для диагностики,
// не для программной логики; дополняется по ходу и возвращается как есть.
type StatusLog struct {
	lines []string
}

// Add добавляет отформатированную строку в конец журнала.
func (l *StatusLog) Add(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// Lines возвращает копию журнала.
func (l *StatusLog) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// PipelineResult — итог сегментационного пайплайна: журнал и наборы масок
// в порядке обработки дефектов.
type PipelineResult struct {
	Statuses []string  `json:"statuses"`
	MaskSets []MaskSet `json:"mask_results"`
}

// TotalMasks возвращает суммарное число масок во всех наборах.
func (r *PipelineResult) TotalMasks() int {
	n := 0
	for _, set := range r.MaskSets {
		n += len(set.Masks)
	}
	return n
}

// FusionResult — итог слияния маркеров по всем категориям.
type FusionResult struct {
	Concerns       []Concern `json:"concerns"`
	Summary        string    `json:"summary"`
	TotalSkinScore float64   `json:"total_skin_score"`
	SkinHealth     string    `json:"skin_health"`
	MethodsUsed    []string  `json:"methods_used"`
	PrimaryMethod  string    `json:"primary_method"`
}

// AnalysisResult — итог одного запроса анализа. После возврата не меняется.
type AnalysisResult struct {
	ID           string          `json:"id"`
	Scores       SkinScores      `json:"data"`
	Report       string          `json:"report"`
	Fusion       *FusionResult   `json:"heuristic_data,omitempty"`
	Pipeline     *PipelineResult `json:"segmentation,omitempty"`
	OverlayImage string          `json:"overlay_image,omitempty"` // data URI, пусто если нечего рисовать
	Method       string          `json:"analysis_method"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AnalysisSummary — краткая запись истории анализов.
type AnalysisSummary struct {
	ID           string
	Method       string
	TotalScore   float64
	ConcernCount int
	CreatedAt    time.Time
}
