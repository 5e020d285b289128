package port

import (
	"context"

	"skin-bot/internal/domain/entity"
)

// SkinDescriber интерфейс vision-модели для оценки кожи.
type SkinDescriber interface {
	// DescribeSkin оценивает показатели кожи и, если модель умеет,
	// возвращает bounding boxes найденных дефектов
	DescribeSkin(ctx context.Context, image []byte) (*entity.SkinData, error)

	// GenerateReport генерирует текстовый отчёт по показателям
	GenerateReport(ctx context.Context, scores entity.SkinScores) (string, error)

	// SuggestPrompts выполняет преданализ изображения и предлагает
	// уточнённые промпты для сегментатора
	SuggestPrompts(ctx context.Context, image []byte) (map[entity.DefectType]string, error)
}
