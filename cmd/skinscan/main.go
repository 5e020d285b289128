package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"skin-bot/config"
	"skin-bot/internal/container"
	"skin-bot/internal/domain/entity"
)

// skinscan — одноразовый прогон анализа кожи без Telegram: снимок из
// файла, результат в JSON. Удобно для отладки пайплайна.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		imagePath   string
		outputPath  string
		overlayPath string
		defectKeys  []string
	)

	cmd := &cobra.Command{
		Use:           "skinscan",
		Short:         "Анализ кожи по фото из файла",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      slog.LevelInfo,
				TimeFormat: time.Kitchen,
			}))

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			c, err := container.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer c.Close()

			imageData, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			defects, err := resolveDefects(defectKeys)
			if err != nil {
				return err
			}

			result, err := c.AnalysisService.AnalyzeDefects(cmd.Context(), imageData, defects)
			if err != nil {
				return err
			}

			if overlayPath != "" && result.OverlayImage != "" {
				if err := writeOverlay(overlayPath, result.OverlayImage); err != nil {
					return err
				}
				log.Info("оверлей записан", "path", overlayPath)
			}

			out := cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Путь к фото лица (обязательно)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Файл для JSON-результата (по умолчанию stdout)")
	cmd.Flags().StringVar(&overlayPath, "overlay", "", "Файл для JPEG с подсветкой проблемных зон")
	cmd.Flags().StringSliceVar(&defectKeys, "defects", nil, "Список дефектов для сегментации (по умолчанию все)")
	cmd.MarkFlagRequired("image")

	return cmd
}

// resolveDefects превращает ключи из флага в типы дефектов.
// Пустой список означает весь реестр.
func resolveDefects(keys []string) ([]entity.DefectType, error) {
	if len(keys) == 0 {
		return entity.SegmentableDefects(), nil
	}

	defects := make([]entity.DefectType, 0, len(keys))
	for _, key := range keys {
		defect := entity.DefectType(strings.TrimSpace(key))
		if !defect.Known() {
			return nil, fmt.Errorf("неизвестный дефект %q", key)
		}
		defects = append(defects, defect)
	}
	return defects, nil
}

func writeOverlay(path, dataURI string) error {
	encoded := strings.TrimPrefix(dataURI, "data:image/jpeg;base64,")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode overlay: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}
