package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "skin-bot/internal/application"
	"skin-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот-косметолог: анализирую состояние кожи лица по фото.

📸 Отправьте мне селфи, и я оценю кожу по основным показателям и подсвечу проблемные зоны.

📋 Команды:
/check — начать анализ кожи
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте селфи без макияжа
2️⃣ Бот проанализирует кожу
3️⃣ Вы получите отчёт и фото с подсветкой проблемных зон

💡 Рекомендации:
• Снимайте при дневном освещении
• Лицо должно занимать большую часть кадра
• Фото должно быть чётким

📋 Команды:
/check — начать анализ
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте селфи для анализа кожи."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для нового анализа."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото лица для анализа кожи."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Анализирую кожу, это может занять пару минут..."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
)

const overlayDataPrefix = "data:image/jpeg;base64,"

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *app.UserService
	analysis *app.AnalysisService
	log      *slog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, analysis *app.AnalysisService, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("авторизация в Telegram выполнена", "account", api.Self.UserName)

	return &Bot{
		api:      api,
		users:    users,
		analysis: analysis,
		log:      log,
	}, nil
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error("не удалось получить пользователя", "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.users.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		b.users.BeginCheck(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "cancel":
		b.users.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	b.users.SetState(ctx, user.ID, user.ChatID, entity.StateProcessing)
	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(photo.FileID)
	if err != nil {
		b.log.Error("не удалось скачать фото", "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		b.users.Cancel(ctx, user.ID, user.ChatID)
		return
	}

	result, err := b.analysis.Analyze(ctx, imageData)
	if err != nil {
		b.log.Error("анализ не выполнен", "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		b.users.Cancel(ctx, user.ID, user.ChatID)
		return
	}

	b.sendMessage(msg.Chat.ID, formatResult(result))

	if result.OverlayImage != "" {
		if err := b.sendOverlay(msg.Chat.ID, result.OverlayImage); err != nil {
			b.log.Error("не удалось отправить оверлей", "error", err)
		}
	}

	// Возвращаем в главное меню
	b.users.Cancel(ctx, user.ID, user.ChatID)
}

// formatResult собирает текстовый ответ по итогам анализа.
func formatResult(result *entity.AnalysisResult) string {
	var sb strings.Builder

	if result.Fusion != nil {
		fmt.Fprintf(&sb, "🧴 Общая оценка кожи: %.0f/100\n", result.Fusion.TotalSkinScore)
		fmt.Fprintf(&sb, "%s\n", result.Fusion.Summary)

		if len(result.Fusion.Concerns) > 0 {
			sb.WriteString("\nПроблемные зоны:\n")
			for _, c := range result.Fusion.Concerns {
				icon := "🟡"
				if c.Severity == entity.SeverityNeedsAttention {
					icon = "🔴"
				}
				fmt.Fprintf(&sb, "%s %s — %s\n", icon, c.Name, c.Description)
			}
		}
	}

	if result.Report != "" {
		sb.WriteString("\n")
		sb.WriteString(result.Report)
	}

	if sb.Len() == 0 {
		return "✅ Анализ завершён, серьёзных проблем не найдено."
	}
	return sb.String()
}

// sendOverlay декодирует data URI оверлея и отправляет его фотографией.
func (b *Bot) sendOverlay(chatID int64, dataURI string) error {
	encoded := strings.TrimPrefix(dataURI, overlayDataPrefix)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode overlay: %w", err)
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  "skin_analysis.jpg",
		Bytes: raw,
	})
	photo.Caption = "🔍 Проблемные зоны подсвечены"

	if _, err := b.api.Send(photo); err != nil {
		return fmt.Errorf("send overlay: %w", err)
	}
	return nil
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("не удалось отправить сообщение", "error", err)
	}
}
