// Package intent classifies user messages and dispatches recognized ones
// to the financial-data providers.
package intent

import (
	"fmt"
	"strings"
	"time"

	"github.com/aman-churiwal/assistant-gateway/internal/provider"
)

type Intent int

const (
	IntentUnknown Intent = iota
	IntentNews
	IntentQuarterly
)

// RefusalMessage is the canned reply for anything off-topic.
const RefusalMessage = "I'm sorry, I can only help with financial market-related questions."

// UnknownCompany is the extraction fallback; providers are never called
// with it.
const UnknownCompany = "Unknown Company"

// Quarter label reported by the quarterly-results flow.
const currentQuarter = "Q4 FY24"

var newsKeywords = []string{"news", "financial news", "latest update"}

var quarterlyKeywords = []string{"quarter", "results", "balance", "profit", "revenue", "transcript"}

// Not real entity extraction: a fixed lookup list, first match wins.
var knownCompanies = []string{"Tata", "Infosys", "Reliance"}

// Classify buckets a message by keyword. News keywords win over quarterly
// ones.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, kw := range newsKeywords {
		if strings.Contains(lower, kw) {
			return IntentNews
		}
	}
	for _, kw := range quarterlyKeywords {
		if strings.Contains(lower, kw) {
			return IntentQuarterly
		}
	}
	return IntentUnknown
}

// ExtractCompany scans the fixed company list, case-insensitively, in list
// order.
func ExtractCompany(text string) string {
	lower := strings.ToLower(text)
	for _, company := range knownCompanies {
		if strings.Contains(lower, strings.ToLower(company)) {
			return company
		}
	}
	return UnknownCompany
}

// Router turns a classified message into assistant text. Provider calls
// are injectable so tests can observe whether one was made.
type Router struct {
	News      func(companyName, date string) provider.NewsReport
	Quarterly func(companyName, quarter string) provider.QuarterlyResults
}

func NewRouter() *Router {
	return &Router{
		News:      provider.GetFinancialNews,
		Quarterly: provider.GetQuarterlyResults,
	}
}

// Respond produces the assistant reply for text at now. Unrecognized
// intents and unknown companies never reach a provider.
func (r *Router) Respond(text string, now time.Time) string {
	company := ExtractCompany(text)

	switch Classify(text) {
	case IntentNews:
		if company == UnknownCompany {
			return RefusalMessage
		}
		report := r.News(company, now.Format("2006-01-02"))
		if len(report.News) == 0 {
			return fmt.Sprintf("No recent financial news found for %s.", company)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Latest Financial News for %s:\n", company)
		for _, article := range report.News {
			fmt.Fprintf(&b, "- %s (%s via %s): %s\n", article.Headline, article.Date, article.Source, article.Description)
		}
		return b.String()

	case IntentQuarterly:
		if company == UnknownCompany {
			return RefusalMessage
		}
		results := r.Quarterly(company, currentQuarter)
		return fmt.Sprintf(
			"Quarterly Financial Results for %s (%s):\n"+
				"- P/E Ratio: %.1f\n"+
				"- P/B Ratio: %.1f\n"+
				"- [Balance Sheet](%s)\n"+
				"- [Analyst Call Transcript](%s)",
			results.CompanyName,
			results.Quarter,
			results.ValuationRatios.PERatio,
			results.ValuationRatios.PBRatio,
			results.Files.BalanceSheetURL,
			results.Files.TranscriptURL,
		)
	}

	return RefusalMessage
}
