// Package provider holds the mock financial-data providers. Both are pure
// functions of their inputs: deterministic payloads, no network, no error
// cases.
package provider

import "fmt"

type NewsArticle struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Date        string `json:"date"`
}

type NewsReport struct {
	CompanyName string        `json:"company_name"`
	News        []NewsArticle `json:"news"`
}

func GetFinancialNews(companyName, date string) NewsReport {
	return NewsReport{
		CompanyName: companyName,
		News: []NewsArticle{
			{
				Headline:    fmt.Sprintf("%s beats earnings expectations", companyName),
				Description: fmt.Sprintf("%s reported better-than-expected results on %s.", companyName, date),
				Source:      "Financial Times",
				Date:        date,
			},
			{
				Headline:    fmt.Sprintf("%s stock rallies", companyName),
				Description: fmt.Sprintf("%s shares surged after strong quarterly performance.", companyName),
				Source:      "Reuters",
				Date:        date,
			},
		},
	}
}

type ValuationRatios struct {
	PERatio float64 `json:"pe_ratio"`
	PBRatio float64 `json:"pb_ratio"`
}

type QuarterlyFiles struct {
	BalanceSheetURL string `json:"balance_sheet_url"`
	TranscriptURL   string `json:"transcript_url"`
}

type QuarterlyResults struct {
	CompanyName     string          `json:"company_name"`
	Quarter         string          `json:"quarter"`
	ValuationRatios ValuationRatios `json:"valuation_ratios"`
	Files           QuarterlyFiles  `json:"files"`
}

func GetQuarterlyResults(companyName, quarter string) QuarterlyResults {
	return QuarterlyResults{
		CompanyName: companyName,
		Quarter:     quarter,
		ValuationRatios: ValuationRatios{
			PERatio: 25.4,
			PBRatio: 3.2,
		},
		Files: QuarterlyFiles{
			BalanceSheetURL: fmt.Sprintf("https://example.com/%s_balance_sheet.xlsx", companyName),
			TranscriptURL:   fmt.Sprintf("https://example.com/%s_analyst_call.doc", companyName),
		},
	}
}
