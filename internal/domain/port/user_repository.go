package port

import (
	"context"

	"skin-bot/internal/domain/entity"
)

// UserRepository интерфейс хранилища пользователей
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние пользователя
	Save(ctx context.Context, user *entity.User) error

	// UpdateState обновляет состояние пользователя
	UpdateState(ctx context.Context, userID int64, state entity.UserState) error
}

// HistoryRepository интерфейс истории анализов.
type HistoryRepository interface {
	// SaveAnalysis сохраняет краткую запись о завершённом анализе
	SaveAnalysis(ctx context.Context, result *entity.AnalysisResult) error

	// Recent возвращает последние анализы, новые первыми
	Recent(ctx context.Context, limit int) ([]entity.AnalysisSummary, error)
}
