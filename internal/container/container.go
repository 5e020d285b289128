package container

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"skin-bot/config"
	app "skin-bot/internal/application"
	"skin-bot/internal/domain/port"
	"skin-bot/internal/infrastructure/llm"
	"skin-bot/internal/infrastructure/segmenter"
	"skin-bot/internal/infrastructure/storage"
	"skin-bot/internal/infrastructure/upload"
	"skin-bot/internal/infrastructure/vision"
	"skin-bot/internal/knowledge"
)

// Container собирает сервисы приложения из конфигурации. Недоступные
// подсистемы (нет FAL_KEY, нет S3, нет базы) заменяются на nil — сервис
// анализа умеет деградировать до эвристик.
type Container struct {
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	History         *storage.PostgresHistory
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Container, error) {
	kb, err := knowledge.Load()
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	var sam port.RemoteSegmenter
	if cfg.FalKey != "" {
		sam = segmenter.NewFalSAM3Client(cfg.FalKey, cfg.FalBaseURL, log)
	} else {
		log.Warn("FAL_KEY не задан, сегментация масок отключена")
	}

	var uploader port.ImageUploader
	if cfg.S3Endpoint != "" {
		store, err := upload.NewImageStore(ctx, upload.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.UploadsBucket,
			UseSSL:    cfg.S3UseSSL,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("init image store: %w", err)
		}
		uploader = store
	} else {
		log.Warn("S3_ENDPOINT не задан, загрузка снимков отключена")
	}

	describer, err := llm.NewOllamaDescriber(ctx, llm.Config{
		BaseURL: cfg.OllamaHost,
		Port:    cfg.OllamaPort,
		Model:   cfg.VisionModel,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init vision model: %w", err)
	}

	meter := vision.NewGoCVMaskMeter()
	renderer := vision.NewGoCVOverlayRenderer(log)

	pipeline := app.NewSegmentationPipeline(sam, uploader, describer, meter, kb, app.PipelineConfig{
		DefaultTimeout:     time.Duration(cfg.SegmentTimeoutSeconds) * time.Second,
		MaxCoveragePercent: cfg.MaxMaskCoveragePercent,
		UseLLMPreanalysis:  cfg.UseLLMPreanalysis,
	}, log)

	fusion := app.NewMarkerFusionEngine(rand.New(rand.NewSource(time.Now().UnixNano())), log)

	var history *storage.PostgresHistory
	var historyPort port.HistoryRepository
	if cfg.DatabaseURL != "" {
		history, err = storage.NewPostgresHistory(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("init history storage: %w", err)
		}
		historyPort = history
	} else {
		log.Warn("DATABASE_URL не задан, история анализов отключена")
	}

	userService := app.NewUserService(storage.NewMemoryUserRepository())
	analysisService := app.NewAnalysisService(
		describer,
		pipeline,
		meter,
		renderer,
		&app.LocalSegmenter{},
		fusion,
		historyPort,
		log,
	)

	return &Container{
		UserService:     userService,
		AnalysisService: analysisService,
		History:         history,
	}, nil
}

// Close освобождает ресурсы контейнера.
func (c *Container) Close() {
	if c.History != nil {
		c.History.Close()
	}
}
