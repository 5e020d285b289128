package entity

// DefectType — тип кожного дефекта. Закрытое перечисление: все таблицы
// (промпты, цвета, зоны, пороги) являются тотальными функциями над ним.
type DefectType string

const (
	DefectAcne          DefectType = "acne"
	DefectPimples       DefectType = "pimples"
	DefectPustules      DefectType = "pustules"
	DefectPapules       DefectType = "papules"
	DefectBlackheads    DefectType = "blackheads"
	DefectWhiteheads    DefectType = "whiteheads"
	DefectComedones     DefectType = "comedones"
	DefectRosacea       DefectType = "rosacea"
	DefectIrritation    DefectType = "irritation"
	DefectPigmentation  DefectType = "pigmentation"
	DefectFreckles      DefectType = "freckles"
	DefectPapillomas    DefectType = "papillomas"
	DefectWarts         DefectType = "warts"
	DefectMoles         DefectType = "moles"
	DefectSkinTags      DefectType = "skin tags"
	DefectWrinkles      DefectType = "wrinkles"
	DefectFineLines     DefectType = "fine lines"
	DefectSkinLesion    DefectType = "skin lesion"
	DefectScars         DefectType = "scars"
	DefectPostAcneMarks DefectType = "post acne marks"
	DefectAcneScars     DefectType = "acne scars"

	// DefectPores и DefectHydration не сегментируются удалённо,
	// но участвуют в слиянии маркеров.
	DefectPores     DefectType = "pores"
	DefectHydration DefectType = "hydration"
)

// RGB цвет подсветки дефекта на оверлее.
type RGB struct {
	R, G, B uint8
}

// DefectInfo описывает дефект: подпись, промпт для сегментатора и цвет.
type DefectInfo struct {
	Label       string // русское название для подписи на изображении
	Prompt      string // базовый текстовый промпт для сегментатора
	Color       RGB    // цвет подсветки
	LongTimeout bool   // дефекты с множеством мелких экземпляров требуют больше времени на сервере
}

// defectRegistry — статический реестр дефектов. Цвета и промпты подобраны
// эмпирически, менять их без сравнения результатов нельзя.
var defectRegistry = map[DefectType]DefectInfo{
	DefectAcne:          {Label: "Акне", Prompt: "acne, pimples, inflamed red bumps on skin, raised red spots, pustules with white or yellow centers", Color: RGB{255, 0, 0}},
	DefectPimples:       {Label: "Прыщи", Prompt: "pimples, small raised red bumps on skin, inflamed spots, zits, blemishes", Color: RGB{255, 50, 50}},
	DefectPustules:      {Label: "Пустулы", Prompt: "pustules, pus-filled bumps, white or yellow-headed pimples, infected acne lesions", Color: RGB{255, 20, 20}},
	DefectPapules:       {Label: "Папулы", Prompt: "papules, small raised solid bumps on skin, red or pink bumps without pus", Color: RGB{255, 100, 100}},
	DefectBlackheads:    {Label: "Черные точки", Prompt: "blackheads, open comedones, dark spots in pores, clogged pores with dark centers", Color: RGB{100, 0, 255}},
	DefectWhiteheads:    {Label: "Белые угри", Prompt: "whiteheads, closed comedones, small white bumps under skin, milia", Color: RGB{255, 255, 0}},
	DefectComedones:     {Label: "Комедоны", Prompt: "comedones, clogged pores, blackheads and whiteheads, blocked hair follicles", Color: RGB{80, 0, 200}},
	DefectRosacea:       {Label: "Розацеа", Prompt: "rosacea, facial redness, red patches on face, visible blood vessels, flushed skin", Color: RGB{255, 60, 100}},
	DefectIrritation:    {Label: "Раздражение", Prompt: "skin irritation, red inflamed areas, rash, sensitive skin patches, redness", Color: RGB{255, 120, 80}},
	DefectPigmentation:  {Label: "Пигментация", Prompt: "pigmentation, dark spots, hyperpigmentation, brown spots, age spots, melasma, uneven skin tone", Color: RGB{200, 0, 255}, LongTimeout: true},
	DefectFreckles:      {Label: "Веснушки", Prompt: "freckles, small brown spots, ephelides, sun spots, light brown dots on skin", Color: RGB{120, 50, 200}, LongTimeout: true},
	DefectPapillomas:    {Label: "Папилломы", Prompt: "papillomas, small skin growths, raised bumps, benign tumors, warty growths", Color: RGB{0, 255, 0}, LongTimeout: true},
	DefectWarts:         {Label: "Бородавки", Prompt: "warts, rough skin growths, raised bumps with rough texture, viral warts, verruca", Color: RGB{50, 255, 50}},
	DefectMoles:         {Label: "Родинки", Prompt: "moles, nevi, dark brown or black spots, raised or flat pigmented lesions", Color: RGB{255, 200, 0}, LongTimeout: true},
	DefectSkinTags:      {Label: "Кожные выросты", Prompt: "skin tags, acrochordons, small fleshy growths hanging from skin, pedunculated skin growths, soft tissue tags, small raised bumps attached by a stalk, flesh-colored or slightly darker growths, multiple small tags clustered together, tags on neck, chest, or body folds, all skin tags including very small ones, tiny tags, medium tags, large tags, tags of any size, every single skin tag visible on the image", Color: RGB{100, 255, 100}, LongTimeout: true},
	DefectWrinkles:      {Label: "Морщины", Prompt: "wrinkles, fine lines, creases in skin, age lines, expression lines, deep folds", Color: RGB{0, 200, 255}},
	DefectFineLines:     {Label: "Мелкие морщины", Prompt: "fine lines, small wrinkles, subtle creases, early signs of aging, delicate lines", Color: RGB{100, 200, 255}},
	DefectSkinLesion:    {Label: "Повреждения", Prompt: "skin lesions, abnormal skin areas, damaged skin, skin abnormalities, skin changes", Color: RGB{0, 255, 255}},
	DefectScars:         {Label: "Шрамы", Prompt: "scars, healed wound marks, raised or depressed scar tissue, post-surgical scars, injury marks", Color: RGB{255, 150, 255}},
	DefectPostAcneMarks: {Label: "Следы постакне", Prompt: "post-acne marks, dark spots after acne, hyperpigmentation from acne, acne scars, PIH (post-inflammatory hyperpigmentation)", Color: RGB{255, 100, 200}},
	DefectAcneScars:     {Label: "Шрамы от акне", Prompt: "acne scars, pitted scars, atrophic scars, depressed scars from acne, ice pick scars, boxcar scars", Color: RGB{200, 100, 255}},
	DefectPores:         {Label: "Расширенные поры", Prompt: "enlarged pores, open pores, visible pores on skin", Color: RGB{100, 255, 200}},
	DefectHydration:     {Label: "Недостаточное увлажнение", Prompt: "dry skin, dehydrated skin, flaky skin patches", Color: RGB{200, 200, 100}},
}

// defaultDefectOrder — порядок обхода дефектов при сегментации.
var defaultDefectOrder = []DefectType{
	DefectAcne, DefectPimples, DefectPustules, DefectPapules,
	DefectBlackheads, DefectWhiteheads, DefectComedones,
	DefectRosacea, DefectIrritation,
	DefectPigmentation, DefectFreckles,
	DefectPapillomas, DefectWarts, DefectMoles, DefectSkinTags,
	DefectWrinkles, DefectFineLines,
	DefectSkinLesion, DefectScars, DefectPostAcneMarks, DefectAcneScars,
}

// Info возвращает описание дефекта. Тотальная функция: для неизвестного
// типа возвращает сам ключ как подпись и белый цвет.
func (t DefectType) Info() DefectInfo {
	if info, ok := defectRegistry[t]; ok {
		return info
	}
	return DefectInfo{Label: string(t), Prompt: string(t), Color: RGB{255, 255, 255}}
}

// Label возвращает русское название дефекта.
func (t DefectType) Label() string {
	return t.Info().Label
}

// Known сообщает, зарегистрирован ли тип в реестре.
func (t DefectType) Known() bool {
	_, ok := defectRegistry[t]
	return ok
}

// SegmentableDefects возвращает упорядоченный список дефектов для
// удалённой сегментации.
func SegmentableDefects() []DefectType {
	out := make([]DefectType, len(defaultDefectOrder))
	copy(out, defaultDefectOrder)
	return out
}

// MaskSource — источник, породивший маску или маркер.
type MaskSource string

const (
	SourceRemoteSegmenter MaskSource = "remote-segmenter"
	SourceLocalSegmenter  MaskSource = "local-segmenter"
	SourceLLMBBox         MaskSource = "llm-bbox"
	SourceHeuristic       MaskSource = "heuristic"
)

// MaskRef — ссылка на одну маску, возвращённую сегментатором.
// Data заполняется после первой успешной загрузки, чтобы не качать маску
// второй раз при построении оверлея.
type MaskRef struct {
	URL  string `json:"url"`
	Data []byte `json:"-"`
}

// MaskSet — набор масок одного дефекта. Порядок наборов в результате
// пайплайна совпадает с порядком обхода дефектов.
type MaskSet struct {
	Defect DefectType `json:"defect_type"`
	Source MaskSource `json:"source"`
	Masks  []MaskRef  `json:"masks"`
}
