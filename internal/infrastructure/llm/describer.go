package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/agent-api/core/pkg/agent"
	"github.com/agent-api/core/types"
	"github.com/agent-api/ollama"

	"skin-bot/internal/domain/entity"
	"skin-bot/internal/domain/port"
)

const systemPrompt = "You are a dermatology vision assistant. You analyze facial skin photos " +
	"and return strictly formatted JSON when asked. Never add commentary outside the requested format."

const describePrompt = `Analyze the skin on this photo and return ONLY a JSON object:
{
  "acne_score": 0-100,
  "pigmentation_score": 0-100,
  "pores_size": 0-100,
  "wrinkles_grade": 0-100,
  "skin_tone": 0-100,
  "texture_score": 0-100,
  "moisture_level": 0-100,
  "oiliness": 0-100,
  "_bounding_boxes": {"acne": [[y_min, x_min, y_max, x_max]], "pigmentation": [], "wrinkles": []}
}
Coordinates are normalized to 0-1000. Include bounding boxes only for defects you can localize.`

const suggestPrompt = `Look at this facial skin photo and generate enhanced segmentation prompts
for the skin conditions that are clearly visible. Return ONLY JSON mapping condition keys to prompts:
{
  "skin tags": "multiple small flesh-colored pedunculated growths, 1-5mm, hanging from thin stalks",
  "papillomas": "raised warty bumps, benign growths, various sizes"
}
Only include conditions that are clearly visible in the image.`

// OllamaDescriber — vision-модель через локальный Ollama.
type OllamaDescriber struct {
	agent *agent.DefaultAgent
	log   *slog.Logger
}

// Config — подключение к Ollama.
type Config struct {
	BaseURL string
	Port    int
	Model   string
}

// NewOllamaDescriber настраивает провайдера и агента.
func NewOllamaDescriber(ctx context.Context, cfg Config, log *slog.Logger) (*OllamaDescriber, error) {
	opts := &ollama.ProviderOpts{
		Logger:  log,
		BaseURL: cfg.BaseURL,
		Port:    cfg.Port,
	}
	provider := ollama.NewProvider(opts)

	model := &types.Model{
		ID: cfg.Model,
	}
	provider.UseModel(ctx, model)

	agentConf := &agent.NewAgentConfig{
		Provider:     provider,
		Logger:       log,
		SystemPrompt: systemPrompt,
	}

	return &OllamaDescriber{agent: agent.NewAgent(agentConf), log: log}, nil
}

// DescribeSkin оценивает показатели кожи и bounding boxes дефектов.
func (d *OllamaDescriber) DescribeSkin(ctx context.Context, image []byte) (*entity.SkinData, error) {
	content, err := d.runWithImage(ctx, describePrompt, image)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		entity.SkinScores
		BoundingBoxes map[string][][4]float64 `json:"_bounding_boxes"`
	}
	if err := json.Unmarshal(extractJSON(content), &parsed); err != nil {
		// Модель не всегда отвечает чистым JSON: вытаскиваем
		// показатели из текста по шаблонам.
		d.log.Warn("ответ модели не распарсился как JSON, разбираем текст", "error", err)
		return &entity.SkinData{Scores: parseScoresFromText(content)}, nil
	}

	data := &entity.SkinData{Scores: parsed.SkinScores}
	if len(parsed.BoundingBoxes) > 0 {
		data.BoundingBoxes = make(map[entity.DefectType][]entity.BoundingBox, len(parsed.BoundingBoxes))
		for key, list := range parsed.BoundingBoxes {
			defect := entity.DefectType(key)
			for _, box := range list {
				data.BoundingBoxes[defect] = append(data.BoundingBoxes[defect], entity.BoundingBox(box))
			}
		}
	}
	return data, nil
}

// GenerateReport генерирует текстовый отчёт по показателям.
func (d *OllamaDescriber) GenerateReport(ctx context.Context, scores entity.SkinScores) (string, error) {
	prompt := fmt.Sprintf(`Составь краткий отчёт о состоянии кожи на русском языке по показателям:
акне %.1f, пигментация %.1f, поры %.1f, морщины %.1f, тон %.1f, текстура %.1f, увлажнённость %.1f, жирность %.1f.
Структура: общее состояние, основные проблемы, секция "Локализация проблем:" с зонами лица, рекомендации.`,
		scores.Acne, scores.Pigmentation, scores.Pores, scores.Wrinkles,
		scores.SkinTone, scores.Texture, scores.Moisture, scores.Oiliness)

	response := d.agent.Run(ctx, agent.WithInput(prompt))
	if response.Err != nil {
		return "", response.Err
	}
	if len(response.Messages) == 0 {
		return "", fmt.Errorf("no response messages received from model")
	}
	return response.Messages[len(response.Messages)-1].Content, nil
}

// SuggestPrompts выполняет преданализ снимка и возвращает уточнённые
// промпты для сегментатора по видимым дефектам.
func (d *OllamaDescriber) SuggestPrompts(ctx context.Context, image []byte) (map[entity.DefectType]string, error) {
	content, err := d.runWithImage(ctx, suggestPrompt, image)
	if err != nil {
		return nil, err
	}

	var parsed map[string]string
	if err := json.Unmarshal(extractJSON(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse suggested prompts: %w", err)
	}

	prompts := make(map[entity.DefectType]string, len(parsed))
	for key, prompt := range parsed {
		if prompt == "" {
			continue
		}
		prompts[entity.DefectType(key)] = prompt
	}
	return prompts, nil
}

// runWithImage прогоняет промпт с изображением. Агент принимает только
// путь к файлу, поэтому снимок кладётся во временный файл.
func (d *OllamaDescriber) runWithImage(ctx context.Context, prompt string, image []byte) (string, error) {
	tmp, err := os.CreateTemp("", "skin-*.jpg")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp image: %w", err)
	}

	response := d.agent.Run(ctx, agent.WithInput(prompt), agent.WithImagePath(tmp.Name()))
	if response.Err != nil {
		return "", response.Err
	}
	if len(response.Messages) == 0 {
		return "", fmt.Errorf("no response messages received from model")
	}
	return response.Messages[len(response.Messages)-1].Content, nil
}

// extractJSON вырезает JSON-объект из ответа модели: всё от первой "{"
// до последней "}". Модели любят оборачивать JSON в markdown.
func extractJSON(content string) []byte {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return []byte(content)
	}
	return []byte(content[start : end+1])
}

var scorePatterns = map[string]*regexp.Regexp{
	"acne":         regexp.MustCompile(`(?i)acne[_\s]?score[:\s]+(\d+\.?\d*)`),
	"pigmentation": regexp.MustCompile(`(?i)pigmentation[_\s]?score[:\s]+(\d+\.?\d*)`),
	"pores":        regexp.MustCompile(`(?i)pores[_\s]?size[:\s]+(\d+\.?\d*)`),
	"wrinkles":     regexp.MustCompile(`(?i)wrinkles[_\s]?grade[:\s]+(\d+\.?\d*)`),
	"skin_tone":    regexp.MustCompile(`(?i)skin[_\s]?tone[:\s]+(\d+\.?\d*)`),
	"texture":      regexp.MustCompile(`(?i)texture[_\s]?score[:\s]+(\d+\.?\d*)`),
	"moisture":     regexp.MustCompile(`(?i)moisture[_\s]?level[:\s]+(\d+\.?\d*)`),
	"oiliness":     regexp.MustCompile(`(?i)oiliness[:\s]+(\d+\.?\d*)`),
}

// parseScoresFromText достаёт показатели из свободного текста.
// Ненайденные показатели остаются нулевыми.
func parseScoresFromText(content string) entity.SkinScores {
	get := func(key string) float64 {
		m := scorePatterns[key].FindStringSubmatch(content)
		if m == nil {
			return 0
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0
		}
		return v
	}

	return entity.SkinScores{
		Acne:         get("acne"),
		Pigmentation: get("pigmentation"),
		Pores:        get("pores"),
		Wrinkles:     get("wrinkles"),
		SkinTone:     get("skin_tone"),
		Texture:      get("texture"),
		Moisture:     get("moisture"),
		Oiliness:     get("oiliness"),
	}
}

// Проверка реализации интерфейса
var _ port.SkinDescriber = (*OllamaDescriber)(nil)
