package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"skin-bot/internal/domain/entity"
	"skin-bot/internal/domain/port"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS skin_analyses (
    id UUID PRIMARY KEY,
    method VARCHAR(32) NOT NULL,
    total_score DOUBLE PRECISION NOT NULL,
    concern_count INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_skin_analyses_created_at ON skin_analyses(created_at DESC);
`

// PostgresHistory хранит краткую историю анализов в PostgreSQL.
// Полный результат (маски, оверлей) намеренно не сохраняется.
type PostgresHistory struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgresHistory подключается к базе и накатывает схему.
func NewPostgresHistory(ctx context.Context, connString string, log *slog.Logger) (*PostgresHistory, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, historySchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresHistory{pool: pool, log: log}, nil
}

// Close закрывает пул соединений.
func (h *PostgresHistory) Close() {
	if h.pool != nil {
		h.pool.Close()
	}
}

// SaveAnalysis записывает итог анализа.
func (h *PostgresHistory) SaveAnalysis(ctx context.Context, result *entity.AnalysisResult) error {
	var totalScore float64
	var concernCount int
	if result.Fusion != nil {
		totalScore = result.Fusion.TotalSkinScore
		concernCount = len(result.Fusion.Concerns)
	}

	_, err := h.pool.Exec(ctx,
		`INSERT INTO skin_analyses (id, method, total_score, concern_count, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		result.ID, result.Method, totalScore, concernCount, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}

	h.log.Debug("анализ сохранён в историю", "id", result.ID, "method", result.Method)
	return nil
}

// Recent возвращает последние записи, новые первыми.
func (h *PostgresHistory) Recent(ctx context.Context, limit int) ([]entity.AnalysisSummary, error) {
	rows, err := h.pool.Query(ctx,
		`SELECT id, method, total_score, concern_count, created_at
         FROM skin_analyses
         ORDER BY created_at DESC
         LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var summaries []entity.AnalysisSummary
	for rows.Next() {
		var s entity.AnalysisSummary
		if err := rows.Scan(&s.ID, &s.Method, &s.TotalScore, &s.ConcernCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Проверка реализации интерфейса
var _ port.HistoryRepository = (*PostgresHistory)(nil)
