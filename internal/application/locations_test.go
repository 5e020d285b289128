package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseReportLocations_Section(t *testing.T) {
	report := "Общее состояние кожи удовлетворительное.\n" +
		"Локализация проблем:\n" +
		"Пигментация обнаружена на щеках.\n" +
		"Морщины находятся в периорбитальной области и вокруг рта."

	locations := ParseReportLocations(report)

	require.Contains(t, locations, "pigmentation")
	require.Contains(t, locations, "wrinkles")
	require.Contains(t, locations["wrinkles"], "вокруг рта")
}

func TestParseReportLocations_MentionsOutsideSection(t *testing.T) {
	report := "Пигментация видна: щёки и нос. Также морщины вокруг глаз."

	locations := ParseReportLocations(report)

	require.Equal(t, []string{"щёки"}, locations["pigmentation"])
	require.Contains(t, locations["wrinkles"], "периорбитальная")
}

func TestParseReportLocations_Empty(t *testing.T) {
	require.Empty(t, ParseReportLocations(""))
	require.Empty(t, ParseReportLocations("Кожа в отличном состоянии."))
}
