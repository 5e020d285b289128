package port

import (
	"context"

	"skin-bot/internal/domain/entity"
)

// RemoteSegmenter интерфейс удалённого сегментатора по текстовому промпту.
// Сервис ненадёжен: может ответить таймаутом, пустым списком или маской
// на почти всё изображение.
type RemoteSegmenter interface {
	// Segment запрашивает маски для промпта по уже загруженному изображению
	Segment(ctx context.Context, imageURL, prompt string) ([]entity.MaskRef, error)

	// FetchMask скачивает одноканальный растр маски по ссылке
	FetchMask(ctx context.Context, url string) ([]byte, error)
}

// ImageUploader интерфейс временного хранилища изображений.
// Загрузка выполняется один раз на запрос и переиспользуется всеми
// вызовами сегментатора.
type ImageUploader interface {
	// Upload сохраняет изображение и возвращает ссылку для удалённого сервиса
	Upload(ctx context.Context, image []byte) (string, error)
}
