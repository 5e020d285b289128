package segmenter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"skin-bot/internal/domain/entity"
	"skin-bot/internal/domain/port"
)

const defaultFalBaseURL = "https://fal.run"

// FalSAM3Client — клиент сегментатора SAM-3 на fal.ai. Сегментация
// синхронная: один POST на промпт, в ответе список ссылок на маски.
type FalSAM3Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewFalSAM3Client создаёт клиент. baseURL пустой — боевой fal.run.
func NewFalSAM3Client(apiKey, baseURL string, log *slog.Logger) *FalSAM3Client {
	if baseURL == "" {
		baseURL = defaultFalBaseURL
	}
	return &FalSAM3Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		// Собственного таймаута у клиента нет: дедлайн задаёт вызывающий
		// через контекст.
		http: &http.Client{},
		log:  log,
	}
}

type falSegmentRequest struct {
	ImageURL   string `json:"image_url"`
	TextPrompt string `json:"text_prompt"`
}

type falSegmentResponse struct {
	Masks []struct {
		URL string `json:"url"`
	} `json:"masks"`
}

// Segment запрашивает маски для текстового промпта.
func (c *FalSAM3Client) Segment(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error) {
	body, err := json.Marshal(falSegmentRequest{ImageURL: imageURL, TextPrompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fal-ai/sam-3/image", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call sam-3: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sam-3 returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed falSegmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	masks := make([]entity.MaskRef, 0, len(parsed.Masks))
	for _, m := range parsed.Masks {
		if m.URL == "" {
			continue
		}
		masks = append(masks, entity.MaskRef{URL: m.URL})
	}
	return masks, nil
}

// FetchMask скачивает растр маски по ссылке из ответа сегментатора.
func (c *FalSAM3Client) FetchMask(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch mask: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mask fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mask: %w", err)
	}
	return data, nil
}

// Проверка реализации интерфейса
var _ port.RemoteSegmenter = (*FalSAM3Client)(nil)
