package app

import (
	"log/slog"
	"math/rand"

	"skin-bot/internal/domain/entity"
)

// FineMarker — точный маркер, построенный по растру маски.
// Value позволяет источнику переопределить значение показателя;
// ноль означает «использовать значение категории».
type FineMarker struct {
	Marker entity.Marker
	Value  float64
}

// FusionInput — всё, что знают о снимке разные источники маркеров.
// Приоритет источников: точные маркеры по маскам > локальная сегментация >
// bounding boxes от vision-модели > локализация из отчёта > типовые зоны.
type FusionInput struct {
	Scores      entity.SkinScores
	FineMarkers map[entity.DefectType][]FineMarker
	LocalBoxes  map[entity.DefectType][]entity.ScoredBox
	LLMBoxes    map[entity.DefectType][]entity.BoundingBox
	ReportText  string
}

// Пороги уверенности для результатов локальной сегментации.
const (
	localWrinkleConfidence      = 0.3
	localPigmentationConfidence = 0.2
)

// Названия методов в порядке убывания точности.
const (
	methodMaskSegmentation  = "Сегментация масок (SAM3)"
	methodLocalSegmentation = "Локальная сегментация"
	methodLLMBoxes          = "Bounding boxes (LLM)"
	methodHeuristics        = "Простые эвристики"
)

// fineCategories сводит родственные дефекты к четырём категориям слияния.
var fineCategories = map[entity.DefectType]entity.DefectType{
	entity.DefectAcne:          entity.DefectAcne,
	entity.DefectPimples:       entity.DefectAcne,
	entity.DefectPustules:      entity.DefectAcne,
	entity.DefectPapules:       entity.DefectAcne,
	entity.DefectPigmentation:  entity.DefectPigmentation,
	entity.DefectFreckles:      entity.DefectPigmentation,
	entity.DefectPostAcneMarks: entity.DefectPigmentation,
	entity.DefectWrinkles:      entity.DefectWrinkles,
	entity.DefectFineLines:     entity.DefectWrinkles,
	entity.DefectPapillomas:    entity.DefectPapillomas,
	entity.DefectWarts:         entity.DefectPapillomas,
	entity.DefectSkinTags:      entity.DefectPapillomas,
}

// FineCategoryFor возвращает категорию слияния для дефекта.
// Для дефектов вне четырёх категорий возвращает false.
func FineCategoryFor(defect entity.DefectType) (entity.DefectType, bool) {
	category, ok := fineCategories[defect]
	return category, ok
}

// MarkerFusionEngine сводит маркеры из всех источников в список проблем
// для пользователя. Для каждой категории используется самый точный из
// доступных источников; типовые зоны гарантируют, что активная категория
// никогда не останется без маркера.
type MarkerFusionEngine struct {
	rng *rand.Rand
	log *slog.Logger
}

// NewMarkerFusionEngine создаёт движок слияния. rng нужен для джиттера
// типовых зон; в тестах передаётся с фиксированным зерном.
func NewMarkerFusionEngine(rng *rand.Rand, log *slog.Logger) *MarkerFusionEngine {
	return &MarkerFusionEngine{rng: rng, log: log}
}

// Fuse строит итоговый список проблем по показателям и маркерам.
func (e *MarkerFusionEngine) Fuse(input FusionInput) *entity.FusionResult {
	var concerns []entity.Concern
	var methodsUsed []string

	boxes := map[entity.DefectType][]entity.BoundingBox{}
	for defect, list := range input.LLMBoxes {
		boxes[defect] = append(boxes[defect], list...)
	}

	hasFine := false
	for _, markers := range input.FineMarkers {
		if len(markers) > 0 {
			hasFine = true
			break
		}
	}
	if hasFine {
		methodsUsed = append(methodsUsed, methodMaskSegmentation)
	}

	// Локальная сегментация подмешивается в bounding boxes, только если
	// точных маркеров нет совсем.
	if !hasFine && len(input.LocalBoxes) > 0 {
		merged := false
		for _, scored := range input.LocalBoxes[entity.DefectWrinkles] {
			if scored.Confidence > localWrinkleConfidence {
				boxes[entity.DefectWrinkles] = append(boxes[entity.DefectWrinkles], scored.Box)
				merged = true
			}
		}
		for _, scored := range input.LocalBoxes[entity.DefectPigmentation] {
			if scored.Confidence > localPigmentationConfidence {
				boxes[entity.DefectPigmentation] = append(boxes[entity.DefectPigmentation], scored.Box)
				merged = true
			}
		}
		if merged {
			methodsUsed = append(methodsUsed, methodLocalSegmentation)
		}
	}

	hasBoxes := false
	for _, list := range boxes {
		if len(list) > 0 {
			hasBoxes = true
			break
		}
	}
	if hasBoxes {
		methodsUsed = append(methodsUsed, methodLLMBoxes)
	}

	reportLocations := ParseReportLocations(input.ReportText)

	// Лениво отмечаем эвристики как использованный метод: только когда
	// хоть одна категория реально легла в типовую зону.
	markHeuristics := func() {
		if len(methodsUsed) == 0 {
			methodsUsed = append(methodsUsed, methodHeuristics)
		}
	}

	concerns = append(concerns, e.fuseAcne(input, boxes, markHeuristics)...)
	concerns = append(concerns, e.fusePigmentation(input, boxes, reportLocations, markHeuristics)...)
	concerns = append(concerns, e.fusePores(input)...)
	concerns = append(concerns, e.fuseWrinkles(input, boxes, reportLocations, markHeuristics)...)
	concerns = append(concerns, e.fusePapillomas(input)...)
	concerns = append(concerns, e.fuseHydration(input, markHeuristics)...)

	totalScore := input.Scores.Average()

	var summary, skinHealth string
	switch {
	case totalScore < 40:
		summary = "Состояние кожи хорошее. Рекомендуется поддерживать текущий уход."
		skinHealth = "Good"
	case totalScore < 60:
		summary = "Состояние кожи удовлетворительное. Некоторые области требуют внимания."
		skinHealth = "Average"
	default:
		summary = "Обнаружены проблемы, требующие внимания. Рекомендуется консультация специалиста."
		skinHealth = "Needs Attention"
	}

	primary := methodHeuristics
	if len(methodsUsed) > 0 {
		primary = methodsUsed[0]
	}

	return &entity.FusionResult{
		Concerns:       concerns,
		Summary:        summary,
		TotalSkinScore: clampPercent(100 - totalScore),
		SkinHealth:     skinHealth,
		MethodsUsed:    methodsUsed,
		PrimaryMethod:  primary,
	}
}

func (e *MarkerFusionEngine) fuseAcne(input FusionInput, boxes map[entity.DefectType][]entity.BoundingBox, markHeuristics func()) []entity.Concern {
	value := input.Scores.Acne
	if value <= 30 {
		return nil
	}

	severity := severityWhen(value > 60)
	const description = "Обнаружены признаки акне. Рекомендуется консультация дерматолога."

	if fine := input.FineMarkers[entity.DefectAcne]; len(fine) > 0 {
		out := make([]entity.Concern, 0, len(fine))
		for _, fm := range fine {
			marker := fm.Marker
			if marker.Shape == "" {
				marker.Shape = entity.ShapePolygon
			}
			out = append(out, entity.Concern{
				Name:        "Акне",
				Defect:      entity.DefectAcne,
				Value:       orDefault(fm.Value, value),
				Severity:    severity,
				Description: description,
				Area:        "face",
				Marker:      marker,
				IsArea:      true,
			})
		}
		return out
	}

	if list := boxes[entity.DefectAcne]; len(list) > 0 {
		out := make([]entity.Concern, 0, len(list))
		for _, box := range list {
			out = append(out, entity.Concern{
				Name:        "Акне",
				Defect:      entity.DefectAcne,
				Value:       value,
				Severity:    severity,
				Description: description,
				Area:        "face",
				Marker:      box.ToMarker(),
			})
		}
		return out
	}

	markHeuristics()
	marker, _ := PlaceInZone("acne", value, e.rng)
	return []entity.Concern{{
		Name:        "Акне",
		Defect:      entity.DefectAcne,
		Value:       value,
		Severity:    severity,
		Description: description,
		Area:        "face",
		Marker:      marker,
	}}
}

func (e *MarkerFusionEngine) fusePigmentation(input FusionInput, boxes map[entity.DefectType][]entity.BoundingBox, reportLocations map[string][]string, markHeuristics func()) []entity.Concern {
	value := input.Scores.Pigmentation
	if value <= 40 {
		return nil
	}

	severity := severityWhen(value > 70)
	const description = "Замечены участки пигментации. Используйте солнцезащитный крем."

	if fine := input.FineMarkers[entity.DefectPigmentation]; len(fine) > 0 {
		out := make([]entity.Concern, 0, len(fine))
		for _, fm := range fine {
			marker := fm.Marker
			marker.Shape = entity.ShapeDot
			if marker.Width == 0 {
				marker.Width = 2
			}
			if marker.Height == 0 {
				marker.Height = 2
			}
			out = append(out, entity.Concern{
				Name:        "Пигментация",
				Defect:      entity.DefectPigmentation,
				Value:       orDefault(fm.Value, value),
				Severity:    severity,
				Description: description,
				Area:        "face",
				Marker:      marker,
				IsDot:       true,
			})
		}
		return out
	}

	if list := boxes[entity.DefectPigmentation]; len(list) > 0 {
		out := make([]entity.Concern, 0, len(list))
		for _, box := range list {
			marker := box.ToMarker()
			marker.Shape = entity.ShapeDot
			out = append(out, entity.Concern{
				Name:        "Пигментация",
				Defect:      entity.DefectPigmentation,
				Value:       value,
				Severity:    severity,
				Description: description,
				Area:        "face",
				Marker:      marker,
				IsDot:       true,
			})
		}
		return out
	}

	if mentionsCheeks(reportLocations["pigmentation"]) {
		cheekDescription := "Замечены участки пигментации на щеках. Используйте солнцезащитный крем."
		return []entity.Concern{
			{
				Name:        "Пигментация",
				Defect:      entity.DefectPigmentation,
				Value:       value,
				Severity:    severity,
				Description: cheekDescription,
				Area:        "face",
				Marker:      entity.Marker{X: 25, Y: 45, Shape: entity.ShapeDot, Zone: "left_cheek"},
				IsDot:       true,
			},
			{
				Name:        "Пигментация",
				Defect:      entity.DefectPigmentation,
				Value:       value,
				Severity:    severity,
				Description: cheekDescription,
				Area:        "face",
				Marker:      entity.Marker{X: 75, Y: 45, Shape: entity.ShapeDot, Zone: "right_cheek"},
				IsDot:       true,
			},
		}
	}

	markHeuristics()
	marker, _ := PlaceInZone("pigmentation", value, e.rng)
	marker.Shape = entity.ShapeDot
	return []entity.Concern{{
		Name:        "Пигментация",
		Defect:      entity.DefectPigmentation,
		Value:       value,
		Severity:    severity,
		Description: description,
		Area:        "face",
		Marker:      marker,
		IsDot:       true,
	}}
}

func (e *MarkerFusionEngine) fusePores(input FusionInput) []entity.Concern {
	value := input.Scores.Pores
	if value <= 50 {
		return nil
	}

	marker, _ := PlaceInZone("pores", value, e.rng)
	return []entity.Concern{{
		Name:        "Расширенные поры",
		Defect:      entity.DefectPores,
		Value:       value,
		Severity:    severityWhen(value > 70),
		Description: "Поры требуют внимания. Рекомендуется регулярное очищение.",
		Area:        "face",
		Marker:      marker,
	}}
}

func (e *MarkerFusionEngine) fuseWrinkles(input FusionInput, boxes map[entity.DefectType][]entity.BoundingBox, reportLocations map[string][]string, markHeuristics func()) []entity.Concern {
	value := input.Scores.Wrinkles
	if value <= 40 {
		return nil
	}

	severity := severityWhen(value > 60)

	if fine := input.FineMarkers[entity.DefectWrinkles]; len(fine) > 0 {
		out := make([]entity.Concern, 0, len(fine))
		for _, fm := range fine {
			marker := fm.Marker
			if marker.Shape == "" {
				marker.Shape = entity.ShapeWrinkle
			}
			out = append(out, entity.Concern{
				Name:        "Морщины",
				Defect:      entity.DefectWrinkles,
				Value:       orDefault(fm.Value, value),
				Severity:    severity,
				Description: "Замечены морщины. Увлажнение и защита от солнца помогут.",
				Area:        "face",
				Marker:      marker,
				IsArea:      true,
			})
		}
		return out
	}

	if list := boxes[entity.DefectWrinkles]; len(list) > 0 {
		out := make([]entity.Concern, 0, len(list))
		for _, box := range list {
			marker := box.ToMarker()
			marker.Shape = entity.ShapeWrinkle
			out = append(out, entity.Concern{
				Name:        "Морщины",
				Defect:      entity.DefectWrinkles,
				Value:       value,
				Severity:    severity,
				Description: "Замечены морщины. Увлажнение и защита от солнца помогут.",
				Area:        "face",
				Marker:      marker,
				IsArea:      true,
			})
		}
		return out
	}

	if locations, ok := reportLocations["wrinkles"]; ok {
		var out []entity.Concern
		if containsAny(locations, "периорбитальная", "вокруг глаз") {
			out = append(out, entity.Concern{
				Name:        "Морщины (периорбитальная область)",
				Defect:      entity.DefectWrinkles,
				Value:       value,
				Severity:    severity,
				Description: "Замечены морщины вокруг глаз. Увлажнение и защита от солнца помогут.",
				Area:        "face",
				Marker:      entity.Marker{X: 50, Y: 35, Width: 35, Height: 20, Shape: entity.ShapeEllipse, Zone: "periorbital"},
				IsArea:      true,
			})
		}
		if containsAny(locations, "периоральная", "вокруг рта") {
			out = append(out, entity.Concern{
				Name:        "Морщины (периоральная область)",
				Defect:      entity.DefectWrinkles,
				Value:       value,
				Severity:    severity,
				Description: "Замечены морщины вокруг рта. Увлажнение и защита от солнца помогут.",
				Area:        "face",
				Marker:      entity.Marker{X: 50, Y: 65, Width: 25, Height: 15, Shape: entity.ShapeEllipse, Zone: "perioral"},
				IsArea:      true,
			})
		}
		if containsAny(locations, "лоб", "forehead") {
			out = append(out, entity.Concern{
				Name:        "Морщины (лоб)",
				Defect:      entity.DefectWrinkles,
				Value:       value,
				Severity:    severity,
				Description: "Замечены морщины на лбу. Увлажнение и защита от солнца помогут.",
				Area:        "face",
				Marker:      entity.Marker{X: 50, Y: 20, Width: 40, Height: 15, Shape: entity.ShapeEllipse, Zone: "forehead"},
				IsArea:      true,
			})
		}
		if len(out) > 0 {
			return out
		}
	}

	markHeuristics()
	marker, _ := PlaceInZone("wrinkles", value, e.rng)
	if marker.Shape == "" {
		marker.Shape = entity.ShapeEllipse
	}
	return []entity.Concern{{
		Name:        "Морщины",
		Defect:      entity.DefectWrinkles,
		Value:       value,
		Severity:    severity,
		Description: "Замечены признаки старения. Увлажнение и защита от солнца помогут.",
		Area:        "face",
		Marker:      marker,
		IsArea:      true,
	}}
}

// fusePapillomas работает только по точным маркерам: для папиллом нет
// ни числового показателя, ни типовой зоны — без маски молчим.
func (e *MarkerFusionEngine) fusePapillomas(input FusionInput) []entity.Concern {
	fine := input.FineMarkers[entity.DefectPapillomas]
	if len(fine) == 0 {
		return nil
	}

	out := make([]entity.Concern, 0, len(fine))
	for _, fm := range fine {
		marker := fm.Marker
		if marker.Shape == "" {
			marker.Shape = entity.ShapeEllipse
		}
		out = append(out, entity.Concern{
			Name:        "Папилломы",
			Defect:      entity.DefectPapillomas,
			Value:       orDefault(fm.Value, 50),
			Severity:    entity.SeverityNeedsAttention,
			Description: "Обнаружены папилломы. Рекомендуется консультация дерматолога.",
			Area:        "face",
			Marker:      marker,
			IsArea:      true,
		})
	}
	return out
}

func (e *MarkerFusionEngine) fuseHydration(input FusionInput, markHeuristics func()) []entity.Concern {
	value := input.Scores.Moisture
	if value >= 50 {
		return nil
	}

	markHeuristics()
	marker, _ := PlaceInZone("hydration", value, e.rng)
	return []entity.Concern{{
		Name:        "Недостаточное увлажнение",
		Defect:      entity.DefectHydration,
		Value:       value,
		Severity:    severityWhen(value < 30),
		Description: "Кожа нуждается в дополнительном увлажнении.",
		Area:        "face",
		Marker:      marker,
	}}
}

func severityWhen(needsAttention bool) entity.Severity {
	if needsAttention {
		return entity.SeverityNeedsAttention
	}
	return entity.SeverityAverage
}

func orDefault(value, fallback float64) float64 {
	if value != 0 {
		return value
	}
	return fallback
}

func mentionsCheeks(keywords []string) bool {
	return containsAny(keywords, "щёки", "щеки")
}

func containsAny(keywords []string, wanted ...string) bool {
	for _, k := range keywords {
		for _, w := range wanted {
			if k == w {
				return true
			}
		}
	}
	return false
}
