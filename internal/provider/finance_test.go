package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFinancialNews(t *testing.T) {
	report := GetFinancialNews("Tata", "2025-06-01")

	assert.Equal(t, "Tata", report.CompanyName)
	require.Len(t, report.News, 2)
	assert.Equal(t, "Tata beats earnings expectations", report.News[0].Headline)
	assert.Equal(t, "Financial Times", report.News[0].Source)
	assert.Equal(t, "2025-06-01", report.News[0].Date)
	assert.Equal(t, "Tata stock rallies", report.News[1].Headline)
	assert.Equal(t, "Reuters", report.News[1].Source)
}

func TestGetQuarterlyResults(t *testing.T) {
	results := GetQuarterlyResults("Infosys", "Q4 FY24")

	assert.Equal(t, "Infosys", results.CompanyName)
	assert.Equal(t, "Q4 FY24", results.Quarter)
	assert.Equal(t, 25.4, results.ValuationRatios.PERatio)
	assert.Equal(t, 3.2, results.ValuationRatios.PBRatio)
	assert.Equal(t, "https://example.com/Infosys_balance_sheet.xlsx", results.Files.BalanceSheetURL)
	assert.Equal(t, "https://example.com/Infosys_analyst_call.doc", results.Files.TranscriptURL)
}

func TestProvidersAreDeterministic(t *testing.T) {
	assert.Equal(t, GetFinancialNews("Reliance", "2025-01-01"), GetFinancialNews("Reliance", "2025-01-01"))
	assert.Equal(t, GetQuarterlyResults("Reliance", "Q1 FY25"), GetQuarterlyResults("Reliance", "Q1 FY25"))
}
