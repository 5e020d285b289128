// Package knowledge хранит базу знаний о кожных дефектах и собирает из неё
// обогащённые промпты для сегментатора.
package knowledge

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"skin-bot/internal/domain/entity"
)

//go:embed knowledge.yaml
var knowledgeYAML []byte

// Entry — статья базы знаний об одном дефекте.
type Entry struct {
	Description     string   `yaml:"description"`
	Characteristics []string `yaml:"characteristics"`
	FewShotExamples []string `yaml:"few_shot_examples"`
}

// Base — загруженная база знаний.
type Base struct {
	entries map[entity.DefectType]Entry
}

// Load разбирает встроенную базу знаний.
func Load() (*Base, error) {
	raw := map[string]Entry{}
	if err := yaml.Unmarshal(knowledgeYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}

	entries := make(map[entity.DefectType]Entry, len(raw))
	for key, entry := range raw {
		entries[entity.DefectType(key)] = entry
	}
	return &Base{entries: entries}, nil
}

// Entry возвращает статью о дефекте, если она есть.
func (b *Base) Entry(defect entity.DefectType) (Entry, bool) {
	entry, ok := b.entries[defect]
	return entry, ok
}

// EnhancePrompt подмешивает к базовому промпту характеристики и примеры
// из базы знаний. Без статьи возвращает базовый промпт как есть.
func (b *Base) EnhancePrompt(defect entity.DefectType, base string) string {
	entry, ok := b.entries[defect]
	if !ok {
		return base
	}

	parts := []string{base}
	if len(entry.Characteristics) > 0 {
		parts = append(parts, "Characteristics: "+strings.Join(entry.Characteristics, ", "))
	}
	if len(entry.FewShotExamples) > 0 {
		parts = append(parts, "Examples: "+strings.Join(entry.FewShotExamples, " | "))
	}
	return strings.Join(parts, ". ")
}
