package entity

// BoundingBox — прямоугольник [y_min, x_min, y_max, x_max] в нормализованном
// пространстве 0–1000, не зависящем от реального размера изображения.
type BoundingBox [4]float64

// MarkerShape — форма маркера на изображении.
type MarkerShape string

const (
	ShapeDot     MarkerShape = "dot"
	ShapeEllipse MarkerShape = "ellipse"
	ShapePolygon MarkerShape = "polygon"
	ShapeWrinkle MarkerShape = "wrinkle"
)

// Marker — нормализованная позиция дефекта в процентах от размера
// изображения. SVGPath и Points опциональны и позволяют воспроизвести
// точный контур.
type Marker struct {
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Width   float64      `json:"width"`
	Height  float64      `json:"height"`
	Shape   MarkerShape  `json:"shape,omitempty"`
	Zone    string       `json:"zone,omitempty"`
	SVGPath string       `json:"svg_path,omitempty"`
	Points  [][2]float64 `json:"points,omitempty"`
}

// ToMarker переводит bounding box в маркер: деление на 10 переводит
// пространство 0–1000 в проценты, центр — середина min/max.
func (b BoundingBox) ToMarker() Marker {
	yMin, xMin, yMax, xMax := b[0], b[1], b[2], b[3]
	return Marker{
		X:      (xMin + xMax) / 2 / 10,
		Y:      (yMin + yMax) / 2 / 10,
		Width:  (xMax - xMin) / 10,
		Height: (yMax - yMin) / 10,
	}
}

// ScoredBox — bounding box с уверенностью локального сегментатора.
type ScoredBox struct {
	Box        BoundingBox
	Confidence float64
}

// Severity — уровень серьёзности проблемы.
type Severity string

const (
	SeverityAverage        Severity = "Average"
	SeverityNeedsAttention Severity = "Needs Attention"
)

// Concern — итоговая находка для пользователя: маркер, серьёзность,
// описание и исходное значение показателя.
type Concern struct {
	Name        string     `json:"name"`
	Defect      DefectType `json:"tech_name"`
	Value       float64    `json:"value"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	Area        string     `json:"area"`
	Marker      Marker     `json:"position"`
	IsArea      bool       `json:"is_area,omitempty"`
	IsDot       bool       `json:"is_dot,omitempty"`
}
